// Command catalog-ingest merges gzip-compressed JSON-lines supplier feeds
// into a single catalog file the storefront can load.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/internal/catalog"
)

func main() {
	var (
		out         string
		skipInvalid bool
		capacity    uint
	)

	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	flags.StringVarP(&out, "out", "o", "-", "output catalog file, - for stdout")
	flags.BoolVar(&skipInvalid, "skip-invalid", false, "log and skip malformed records instead of failing")
	flags.UintVar(&capacity, "expected", defaultCapacity, "expected number of distinct SKUs, sizes the dedupe filter")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] feed.jsonl.gz...\n", os.Args[0])
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	lg, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, flags.Args(), out, Options{
		SkipInvalid: skipInvalid,
		Capacity:    capacity,
	}); err != nil {
		lg.Error("Catalog ingest failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Catalog ingest completed")
}

func run(ctx context.Context, lg *zap.Logger, feeds []string, out string, opts Options) error {
	products, stats, err := Ingest(ctx, lg, feeds, opts)
	if err != nil {
		return err
	}
	lg.Info("Feeds merged",
		zap.Int("products", len(products)),
		zap.Int("records", stats.Records),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped", stats.Skipped),
	)

	// Reject catalogs the server would refuse to load.
	if _, err := catalog.NewRepository(products); err != nil {
		return errors.Wrap(err, "validate catalog")
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := catalog.Encode(w, products); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	return nil
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
)

const (
	defaultCapacity = 1_000_000
	bloomFPR        = 0.001
	progressEvery   = 100_000
	maxRecordBytes  = 1 << 20
)

// Options tunes Ingest.
type Options struct {
	// SkipInvalid logs malformed records instead of failing the feed.
	SkipInvalid bool
	// Capacity is the expected number of distinct SKUs.
	Capacity uint
}

// Stats summarizes an ingest run.
type Stats struct {
	Records    int
	Duplicates int
	Skipped    int
}

type feedResult struct {
	products []product.Product
	skipped  int
}

// Ingest reads every feed concurrently and merges them in argument order.
// The first record of a SKU wins; later ones are counted as duplicates.
// Two different SKUs sharing an id are an error.
func Ingest(ctx context.Context, lg *zap.Logger, feeds []string, opts Options) ([]product.Product, Stats, error) {
	results := make([]feedResult, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range feeds {
		g.Go(func() error {
			res, err := readFeed(gctx, lg.With(zap.String("feed", path)), path, opts.SkipInvalid)
			if err != nil {
				return errors.Wrapf(err, "feed %s", path)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	return merge(results, opts.Capacity)
}

func merge(results []feedResult, capacity uint) ([]product.Product, Stats, error) {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	var (
		stats  Stats
		out    []product.Product
		filter = bloom.NewWithEstimates(capacity, bloomFPR)
		// The filter only proves absence; seen confirms a hit.
		seen = make(map[string]struct{})
		ids  = make(map[int64]string)
	)
	for _, res := range results {
		stats.Skipped += res.skipped
		for _, p := range res.products {
			stats.Records++
			if filter.TestString(p.SKU) {
				if _, dup := seen[p.SKU]; dup {
					stats.Duplicates++
					continue
				}
			}
			if sku, taken := ids[p.ID]; taken {
				return nil, Stats{}, errors.Errorf("id %d used by SKUs %q and %q", p.ID, sku, p.SKU)
			}
			filter.AddString(p.SKU)
			seen[p.SKU] = struct{}{}
			ids[p.ID] = p.SKU
			out = append(out, p)
		}
	}
	return out, stats, nil
}

// readFeed decodes one record per non-blank line of a gzip file.
func readFeed(ctx context.Context, lg *zap.Logger, path string, skipInvalid bool) (feedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return feedResult{}, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return feedResult{}, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var (
		res  feedResult
		line int
	)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64<<10), maxRecordBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return feedResult{}, err
		}
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		p, err := catalog.DecodeRecord(data)
		if err == nil && p.SKU == "" {
			err = errors.New("record without sku")
		}
		if err != nil {
			if !skipInvalid {
				return feedResult{}, errors.Wrapf(err, "line %d", line)
			}
			lg.Warn("Skipping record", zap.Int("line", line), zap.Error(err))
			res.skipped++
			continue
		}
		res.products = append(res.products, p)
		if len(res.products)%progressEvery == 0 {
			lg.Info("Feed progress", zap.Int("records", len(res.products)))
		}
	}
	if err := scanner.Err(); err != nil {
		return feedResult{}, errors.Wrap(err, "scan")
	}

	lg.Info("Feed read", zap.Int("records", len(res.products)), zap.Int("skipped", res.skipped))
	return res, nil
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/promo-storefront/internal/catalog"
)

func writeFeed(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.jsonl.gz")

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

const (
	mug    = `{"id":1,"name":"Taza","sku":"TZ-01","category":"tazas","supplier":"andes","basePrice":1000,"stock":10,"status":"active","priceBreaks":[{"minQty":10,"price":900,"discount":10}]}`
	mugDup = `{"id":7,"name":"Taza bis","sku":"TZ-01","category":"tazas","supplier":"sur","basePrice":990,"stock":5,"status":"active"}`
	pen    = `{"id":2,"name":"Lápiz","sku":"LP-02","category":"escritura","supplier":"sur","basePrice":300,"stock":50,"status":"active"}`
	clash  = `{"id":2,"name":"Otro","sku":"OT-09","category":"escritura","supplier":"sur","basePrice":300,"stock":50,"status":"active"}`
)

func TestIngest(t *testing.T) {
	first := writeFeed(t, mug, "", pen)
	second := writeFeed(t, mugDup)

	products, stats, err := Ingest(t.Context(), zaptest.NewLogger(t), []string{first, second}, Options{Capacity: 100})
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Taza", products[0].Name)
	assert.Equal(t, "LP-02", products[1].SKU)
	require.Len(t, products[0].PriceBreaks, 1)
	assert.Equal(t, Stats{Records: 3, Duplicates: 1}, stats)
}

func TestIngest_InvalidRecord(t *testing.T) {
	feed := writeFeed(t, mug, `{"id":3,`, `{"id":4,"name":"Sin SKU","basePrice":1}`, pen)

	_, _, err := Ingest(t.Context(), zaptest.NewLogger(t), []string{feed}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	products, stats, err := Ingest(t.Context(), zaptest.NewLogger(t), []string{feed}, Options{SkipInvalid: true})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, stats.Skipped)
}

func TestIngest_IDClash(t *testing.T) {
	feed := writeFeed(t, pen, clash)

	_, _, err := Ingest(t.Context(), zaptest.NewLogger(t), []string{feed}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id 2")
}

func TestIngest_MissingFeed(t *testing.T) {
	_, _, err := Ingest(t.Context(), zaptest.NewLogger(t), []string{filepath.Join(t.TempDir(), "nope.gz")}, Options{})
	require.Error(t, err)
}

func TestRun_WritesLoadableCatalog(t *testing.T) {
	feed := writeFeed(t, mug, pen)
	out := filepath.Join(t.TempDir(), "catalog.json")

	require.NoError(t, run(t.Context(), zaptest.NewLogger(t), []string{feed}, out, Options{}))

	repo, err := catalog.LoadFile(out)
	require.NoError(t, err)
	p, err := repo.GetByID(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Lápiz", p.Name)
}

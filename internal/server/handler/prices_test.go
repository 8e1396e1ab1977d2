package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/pricing"
)

func testPricesHandler(sources ...pricing.Source) *PricesHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPricesHandler(pricing.NewAggregator(sources, logger), logger)
}

func TestPricesCurrent(t *testing.T) {
	h := testPricesHandler(
		fixedSource{venue: "uniswap", price: 3285.12},
		fixedSource{venue: "sushiswap", price: 3287.45},
	)

	rec := httptest.NewRecorder()
	h.Current(rec, httptest.NewRequest(http.MethodGet, "/api/prices/current", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uniswap")
	assert.Contains(t, rec.Body.String(), "sushiswap")
}

func TestPricesCurrentNoVenues(t *testing.T) {
	h := testPricesHandler()

	rec := httptest.NewRecorder()
	h.Current(rec, httptest.NewRequest(http.MethodGet, "/api/prices/current", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPricesComparisonInsufficientVenues(t *testing.T) {
	h := testPricesHandler(fixedSource{venue: "uniswap", price: 3285.12})

	rec := httptest.NewRecorder()
	h.Comparison(rec, httptest.NewRequest(http.MethodGet, "/api/prices/comparison", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrInsufficientVenues.Error())
}

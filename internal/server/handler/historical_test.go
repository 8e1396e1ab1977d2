package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
)

type fakeHistoryStore struct {
	rows  []domain.PriceHistoryRow
	stats *domain.PriceStats
}

func (f *fakeHistoryStore) RecordPrices(ctx context.Context, snapshot domain.PriceSnapshot) error {
	return nil
}

func (f *fakeHistoryStore) RecordOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	return nil
}

func (f *fakeHistoryStore) RecentPrices(ctx context.Context, venue string, windowHours, limit int) ([]domain.PriceHistoryRow, error) {
	return f.rows, nil
}

func (f *fakeHistoryStore) PriceStats(ctx context.Context, venue string, windowHours int) (*domain.PriceStats, error) {
	if f.stats == nil {
		return nil, domain.ErrNotFound
	}
	return f.stats, nil
}

func testHistoricalHandler(store domain.HistoryStore) *HistoricalHandler {
	return NewHistoricalHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHistoricalPrices(t *testing.T) {
	store := &fakeHistoryStore{rows: []domain.PriceHistoryRow{
		{ID: 1, Venue: "uniswap", Price: 3285.12, Timestamp: time.Now().UTC()},
	}}
	h := testHistoricalHandler(store)

	rec := httptest.NewRecorder()
	h.Prices(rec, httptest.NewRequest(http.MethodGet, "/api/historical/prices?venue=uniswap&hours=24", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Prices []domain.PriceHistoryRow `json:"prices"`
		Count  int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "uniswap", out.Prices[0].Venue)
}

func TestHistoricalPricesEmpty(t *testing.T) {
	h := testHistoricalHandler(&fakeHistoryStore{})

	rec := httptest.NewRecorder()
	h.Prices(rec, httptest.NewRequest(http.MethodGet, "/api/historical/prices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prices":[],"count":0}`, rec.Body.String())
}

func TestHistoricalStats(t *testing.T) {
	store := &fakeHistoryStore{stats: &domain.PriceStats{
		Venue: "uniswap", Current: 3285.12, High: 3300, Low: 3250, Average: 3280, DataPoints: 42,
	}}
	h := testHistoricalHandler(store)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/historical/stats?venue=uniswap", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.PriceStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 42, stats.DataPoints)
}

func TestHistoricalStatsRequiresVenue(t *testing.T) {
	h := testHistoricalHandler(&fakeHistoryStore{})

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/historical/stats", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoricalStatsNotFound(t *testing.T) {
	h := testHistoricalHandler(&fakeHistoryStore{})

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/historical/stats?venue=ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

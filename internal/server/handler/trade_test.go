package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/profit"
	"github.com/alanyoungcy/dexarb/internal/simulator"
)

type fakeBlob struct {
	keys []string
}

func (f *fakeBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.keys = append(f.keys, key)
	return nil
}

func testTradeHandler(blob domain.BlobWriter) (*TradeHandler, *simulator.Simulator) {
	calc := profit.NewCalculator(profit.Config{
		FeeRates:        map[string]float64{"uniswap": 0.003, "sushiswap": 0.003},
		DefaultFeeRate:  0.003,
		DefaultSlippage: 0.005,
		GasCostPerSwap:  15,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sim := simulator.New(calc, logger)
	return NewTradeHandler(sim, nil, blob, logger), sim
}

func TestTradeSimulate(t *testing.T) {
	h, _ := testTradeHandler(nil)

	body := `{"buy_venue":"uniswap","sell_venue":"sushiswap","buy_price":100,"sell_price":110,"trade_size":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/trade/simulate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Simulate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var record domain.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "TRADE_1", record.TradeID)
	assert.Equal(t, domain.TradeStatusSuccess, record.Status)
}

func TestTradeSimulateRejectsInvalidParams(t *testing.T) {
	h, sim := testTradeHandler(nil)

	body := `{"buy_venue":"uniswap","sell_venue":"sushiswap","buy_price":0,"sell_price":110,"trade_size":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/trade/simulate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Simulate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, sim.TradeCount())
}

func TestTradeStatisticsAndHistory(t *testing.T) {
	h, sim := testTradeHandler(nil)
	_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Statistics(rec, httptest.NewRequest(http.MethodGet, "/api/trade/statistics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.TradeStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTrades)

	rec = httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/trade/history?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Trades []domain.TradeRecord `json:"trades"`
		Count  int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
}

func TestTradeExport(t *testing.T) {
	blob := &fakeBlob{}
	h, sim := testTradeHandler(blob)
	_, err := sim.Simulate("uniswap", "sushiswap", 100, 110, 5)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/api/trade/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, blob.keys, 1)
	assert.Contains(t, blob.keys[0], "exports/trades-")
}

func TestTradeExportWithoutBlobStore(t *testing.T) {
	h, _ := testTradeHandler(nil)

	rec := httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodPost, "/api/trade/export", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

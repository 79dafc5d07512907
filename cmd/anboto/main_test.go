package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/betbot/anboto/internal/mockvenue"
	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startVenue(t *testing.T) string {
	t.Helper()
	s, err := mockvenue.New(mockvenue.Config{
		Credentials: []*types.Credentials{types.NewCredentials("K1", []byte("test-secret"))},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = s.Close()
	})
	return srv.URL + mockvenue.BasePath
}

func setupEnv(t *testing.T, baseURL, secret string) {
	t.Helper()
	for _, k := range []string{"PROXY", "SIDE_FORMAT", "ID_FORMAT", "METRICS_ADDR", "LOG_FILE", "LOG_JSON",
		"SECRETSTORE_PATH", "SECRETSTORE_KEY", "RECV_WINDOW", "TIMEOUT_SECONDS", "RETRY_COUNT"} {
		t.Setenv("ANBOTO_"+k, "")
	}
	t.Setenv("ANBOTO_BASE_URL", baseURL)
	t.Setenv("ANBOTO_API_KEY", "K1")
	t.Setenv("ANBOTO_API_SECRET", secret)
	t.Setenv("ANBOTO_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-env", filepath.Join(t.TempDir(), "none.env")}, args...)
	code := run(full, &stdout, &stderr)
	if code != exitOK {
		t.Logf("stderr: %s", stderr.String())
	}
	return code, stdout.String()
}

func TestRun_OrderLifecycle(t *testing.T) {
	setupEnv(t, startVenue(t), "dGVzdC1zZWNyZXQ=")

	code, out := runCLI(t, "place", "-symbol", "BTC/USDT", "-side", "buy", "-qty", "0.5", "-duration", "600")
	require.Equal(t, exitOK, code)
	var placed struct {
		OrderID       int64  `json:"order_id"`
		ClientOrderID string `json:"client_order_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &placed))
	assert.Positive(t, placed.OrderID)
	assert.NotEmpty(t, placed.ClientOrderID)

	code, out = runCLI(t, "open")
	require.Equal(t, exitOK, code)
	var ids []int64
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Equal(t, []int64{placed.OrderID}, ids)

	code, out = runCLI(t, "orders", "-client-ids", placed.ClientOrderID)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, placed.ClientOrderID)

	code, out = runCLI(t, "cancel", "-id", strconv.FormatInt(placed.OrderID, 10))
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, `"order_id": `+strconv.FormatInt(placed.OrderID, 10))

	code, out = runCLI(t, "open")
	require.Equal(t, exitOK, code)
	assert.JSONEq(t, `[]`, out)
}

func TestRun_PlaceManyPartial(t *testing.T) {
	setupEnv(t, startVenue(t), "dGVzdC1zZWNyZXQ=")
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orders:
  - exchange: BINANCE
    symbol: BTC/USDT
    asset_category: SPOT
    side: BUY
    quantity: "1"
    strategy: TWAP
  - client_order_id: dup
    exchange: BINANCE
    symbol: ETH/USDT
    asset_category: SPOT
    side: SELL
    quantity: "2"
    strategy: VWAP
`), 0o600))

	code, out := runCLI(t, "place-many", "-file", path)
	require.Equal(t, exitOK, code)
	var res types.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 2)
	assert.True(t, res.Entries[1].Success)
	assert.Equal(t, "dup", res.Entries[1].ClientOrderID)

	code, out = runCLI(t, "cancel-many", "-ids", strconv.FormatInt(res.Entries[0].OrderID, 10)+",999999")
	assert.Equal(t, exitPartial, code)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 2)
	assert.True(t, res.Entries[0].Success)
	assert.False(t, res.Entries[1].Success)
}

func TestRun_Errors(t *testing.T) {
	url := startVenue(t)

	setupEnv(t, url, "d3Jvbmc=")
	code, _ := runCLI(t, "open")
	assert.Equal(t, exitAuth, code)

	setupEnv(t, url, "dGVzdC1zZWNyZXQ=")
	code, _ = runCLI(t, "bogus")
	assert.Equal(t, exitUsage, code)

	code, _ = runCLI(t, "cancel")
	assert.Equal(t, exitUsage, code)

	code, _ = runCLI(t, "place", "-symbol", "BTC/USDT", "-side", "HOLD", "-qty", "1")
	assert.Equal(t, exitUsage, code)

	code, _ = runCLI(t)
	assert.Equal(t, exitUsage, code)

}

func TestRun_ConfigurationErrors(t *testing.T) {
	url := startVenue(t)
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing credentials", map[string]string{"ANBOTO_API_KEY": "", "ANBOTO_API_SECRET": ""}},
		{"secret not base64", map[string]string{"ANBOTO_API_SECRET": "!!!"}},
		{"key without secret", map[string]string{"ANBOTO_API_SECRET": ""}},
		{"recv window out of range", map[string]string{"ANBOTO_RECV_WINDOW": "999999"}},
		{"bad base url", map[string]string{"ANBOTO_BASE_URL": "not-a-url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t, url, "dGVzdC1zZWNyZXQ=")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var stdout, stderr bytes.Buffer
			code := run([]string{"-env", filepath.Join(t.TempDir(), "none.env"), "open"}, &stdout, &stderr)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), "error:")
		})
	}
}

func TestParseOrdersFile_KeepsParamOrder(t *testing.T) {
	orders, opts, err := parseOrdersFile([]byte(`
all_or_none: true
orders:
  - exchange: okx
    symbol: BTC/USDT
    asset_category: future
    side: sell
    quantity: "0.25"
    strategy: twap
    limit_price: "65000.5"
    params:
      z_last: 1
      a_first: 1.5
      flags: [x, "y"]
      nested: {b: true, a: text}
`))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, opts.AllOrNone)
	assert.True(t, *opts.AllOrNone)

	o := orders[0]
	assert.Equal(t, types.ExchangeOKX, o.Exchange)
	assert.Equal(t, types.AssetCategoryFuture, o.AssetCategory)
	assert.Equal(t, types.SideSell, o.Side)
	assert.Equal(t, types.StrategyTWAP, o.Strategy)
	assert.Equal(t, "0.25", o.Quantity.String())
	require.NotNil(t, o.LimitPrice)
	assert.Equal(t, "65000.5", o.LimitPrice.String())
	assert.Equal(t, `{"z_last":1,"a_first":1.5,"flags":["x","y"],"nested":{"b":true,"a":"text"}}`, canonical.Body(o.Params))
}

func TestParseOrdersFile_Invalid(t *testing.T) {
	for _, body := range []string{
		`orders: [{quantity: abc}]`,
		`orders: [{quantity: "1", limit_price: x}]`,
		`orders: [{quantity: "1", params: [1, 2]}]`,
		`orders: [{quantity: "1", params: {a: null}}]`,
		`orders: {`,
	} {
		_, _, err := parseOrdersFile([]byte(body))
		assert.Error(t, err, body)
	}
}

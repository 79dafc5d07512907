package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/betbot/anboto/internal/mockvenue"
	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVenueClient(t *testing.T, quirks mockvenue.Quirks) *Client {
	t.Helper()
	venue, err := mockvenue.New(mockvenue.Config{
		Credentials: []*types.Credentials{testCreds},
		Quirks:      quirks,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(venue.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = venue.Close()
	})

	c, err := NewClient(testCreds, Options{BaseURL: srv.URL + mockvenue.BasePath})
	require.NoError(t, err)
	return c
}

func twap(c *Client, symbol string, qty string) types.OrderRequest {
	return c.NewOrder(types.ExchangeBinance, symbol, types.AssetCategorySpot, types.SideBuy,
		decimal.RequireFromString(qty), types.StrategyTWAP,
		canonical.NewParams(canonical.Field{Key: "duration_seconds", Value: canonical.Int(300)}))
}

func TestClient_OrderLifecycle(t *testing.T) {
	c := newVenueClient(t, mockvenue.Quirks{})
	ctx := context.Background()

	id1, err := c.PlaceOrder(ctx, twap(c, "ETH/USDT", "1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)

	// 空 client_order_id 由生成器补全
	o := twap(c, "BTC/USDT", "0.1")
	o.ClientOrderID = ""
	id2, err := c.PlaceOrder(ctx, o)
	require.NoError(t, err)

	open, err := c.ListOpenOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id1, id2}, open)

	ack, err := c.CancelOrder(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, id1, ack.OrderID)
	assert.Equal(t, types.OrderStatusCancelled, ack.Status)

	orders, err := c.GetOrders(ctx, []int64{id1}, nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, types.OrderStatusCancelled, orders[0].Status)

	_, err = c.CancelOrder(ctx, id1)
	var apiErr *types.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, types.ErrCodeInvalidOrder, apiErr.Code)

	open, err = c.ListOpenOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id2}, open)

	found, err := c.FindOrders(ctx, types.FindParams{StartMs: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestClient_CancelByClientOrderID(t *testing.T) {
	c := newVenueClient(t, mockvenue.Quirks{})
	ctx := context.Background()

	o := twap(c, "ETH/USDT", "2")
	id, err := c.PlaceOrder(ctx, o)
	require.NoError(t, err)

	ack, err := c.CancelByClientOrderID(ctx, o.ClientOrderID)
	require.NoError(t, err)
	assert.Equal(t, id, ack.OrderID)
	assert.Equal(t, o.ClientOrderID, ack.ClientOrderID)
}

func TestClient_PlaceManyMixed(t *testing.T) {
	c := newVenueClient(t, mockvenue.Quirks{})
	ctx := context.Background()

	dup := twap(c, "ETH/USDT", "1")
	_, err := c.PlaceOrder(ctx, dup)
	require.NoError(t, err)

	orders := []types.OrderRequest{twap(c, "ETH/USDT", "1"), dup, twap(c, "BTC/USDT", "0.5")}
	res, err := c.PlaceMany(ctx, orders, types.CreateManyOptions{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	assert.True(t, res.Entries[0].Success)
	assert.False(t, res.Entries[1].Success)
	assert.Equal(t, types.ErrCodeInvalidOrder, res.Entries[1].Error.Code)
	assert.Equal(t, dup.ClientOrderID, res.Entries[1].ClientOrderID)
	assert.True(t, res.Entries[2].Success)

	var partial *types.PartialBatchFailure
	require.True(t, errors.As(res.Err(), &partial))
	assert.Len(t, partial.Failed, 1)
	assert.Equal(t, 1, partial.Failed[0].Index)

	cancel, err := c.CancelMany(ctx, append(res.OrderIDs(), 999))
	require.NoError(t, err)
	require.Len(t, cancel.Entries, 3)
	assert.True(t, cancel.Entries[0].Success)
	assert.True(t, cancel.Entries[1].Success)
	assert.False(t, cancel.Entries[2].Success)
	assert.Equal(t, int64(999), cancel.Entries[2].OrderID)
}

func TestClient_PlaceManyAllOrNone(t *testing.T) {
	c := newVenueClient(t, mockvenue.Quirks{})
	ctx := context.Background()

	dup := twap(c, "ETH/USDT", "1")
	_, err := c.PlaceOrder(ctx, dup)
	require.NoError(t, err)

	yes := true
	_, err = c.PlaceMany(ctx, []types.OrderRequest{twap(c, "BTC/USDT", "1"), dup}, types.CreateManyOptions{AllOrNone: &yes})
	assert.ErrorIs(t, err, types.ErrAPI)

	open, err := c.ListOpenOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestClient_PlaceManyCorrelation(t *testing.T) {
	tests := []struct {
		name    string
		quirks  mockvenue.Quirks
		check   func(t *testing.T, res *types.BatchResult)
		wantErr error
	}{
		{
			name:   "reversed with echo",
			quirks: mockvenue.Quirks{ReverseBatch: true},
			check: func(t *testing.T, res *types.BatchResult) {
				assert.Equal(t, []int64{1, 2, 3}, res.OrderIDs())
			},
		},
		{
			name:   "positional without echo",
			quirks: mockvenue.Quirks{OmitBatchEcho: true},
			check: func(t *testing.T, res *types.BatchResult) {
				assert.Equal(t, []int64{1, 2, 3}, res.OrderIDs())
				assert.NotEmpty(t, res.Entries[0].ClientOrderID)
			},
		},
		{
			name:   "dropped entry with echo",
			quirks: mockvenue.Quirks{DropLastEntry: true},
			check: func(t *testing.T, res *types.BatchResult) {
				require.Len(t, res.Entries, 3)
				assert.Equal(t, types.ErrCodeMissingFromResponse, res.Entries[2].Error.Code)
			},
		},
		{
			name:    "dropped entry without echo",
			quirks:  mockvenue.Quirks{DropLastEntry: true, OmitBatchEcho: true},
			wantErr: types.ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVenueClient(t, tt.quirks)
			orders := []types.OrderRequest{twap(c, "A/USDT", "1"), twap(c, "B/USDT", "1"), twap(c, "C/USDT", "1")}
			res, err := c.PlaceMany(context.Background(), orders, types.CreateManyOptions{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestClient_AuthRejected(t *testing.T) {
	venue, err := mockvenue.New(mockvenue.Config{Credentials: []*types.Credentials{testCreds}})
	require.NoError(t, err)
	srv := httptest.NewServer(venue.Router())
	defer srv.Close()
	defer venue.Close()

	wrongSecret := types.NewCredentials("K1", []byte("other-secret"))
	c, err := NewClient(wrongSecret, Options{BaseURL: srv.URL + mockvenue.BasePath})
	require.NoError(t, err)

	_, err = c.ListOpenOrders(context.Background())
	var auth *types.AuthRejectedError
	require.True(t, errors.As(err, &auth))
	assert.Equal(t, http.StatusUnauthorized, auth.StatusCode)
	assert.Equal(t, types.ErrCodeInvalidSignature, auth.Code)

	// 时钟偏移超出接收窗口
	skewed, err := NewClient(testCreds, Options{
		BaseURL: srv.URL + mockvenue.BasePath,
		Clock:   signing.ClockFunc(func() int64 { return time.Now().UnixMilli() - 10_000 }),
	})
	require.NoError(t, err)
	_, err = skewed.ListOpenOrders(context.Background())
	require.True(t, errors.As(err, &auth))
	assert.Equal(t, types.ErrCodeInvalidTimestamp, auth.Code)
}

// recordingTransport 记录请求并返回预设响应
type recordingTransport struct {
	mu       sync.Mutex
	requests []*types.Request
	respond  func(req *types.Request) (*types.Response, error)
}

func (r *recordingTransport) Execute(ctx context.Context, req *types.Request) (*types.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.respond(req)
}

func TestClient_FreshTimestampPerRequest(t *testing.T) {
	var now atomic.Int64
	now.Store(1700000000000)
	rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
		return ok200(`{"orders":[]}`), nil
	}}
	c, err := NewClient(testCreds, Options{
		BaseURL:   testBase,
		Transport: rt,
		Clock:     signing.ClockFunc(func() int64 { return now.Add(7) }),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.ListOpenOrders(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, rt.requests, 3)
	seen := map[string]bool{}
	for _, req := range rt.requests {
		ts := req.Header.Get(signing.HeaderTimestamp)
		assert.False(t, seen[ts], "timestamp reused: %s", ts)
		seen[ts] = true
	}
}

func TestClient_TransportFailures(t *testing.T) {
	t.Run("network error", func(t *testing.T) {
		rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
			return nil, errors.New("connection refused")
		}}
		c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
		require.NoError(t, err)

		_, err = c.CancelOrder(context.Background(), 1)
		var te *types.TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, EndpointCancelOrder, te.Path)
		assert.Len(t, rt.requests, 1, "must not retry")
	})

	t.Run("deadline", func(t *testing.T) {
		rt := &recordingTransport{respond: func(req *types.Request) (*types.Response, error) {
			return nil, context.DeadlineExceeded
		}}
		c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
		require.NoError(t, err)

		_, err = c.PlaceOrder(context.Background(), twap(c, "ETH/USDT", "1"))
		var te *types.TransportError
		require.True(t, errors.As(err, &te))
		assert.True(t, te.Timeout())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("canceled before send", func(t *testing.T) {
		rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
			return ok200(`{}`), nil
		}}
		c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.ListOpenOrders(ctx)
		assert.ErrorIs(t, err, types.ErrTransport)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, rt.requests)
	})

	t.Run("gateway html", func(t *testing.T) {
		rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
			return &types.Response{StatusCode: http.StatusBadGateway, Body: []byte("<html/>"), Message: "502 Bad Gateway"}, nil
		}}
		c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
		require.NoError(t, err)

		_, err = c.ListOpenOrders(context.Background())
		assert.ErrorIs(t, err, types.ErrTransport)
	})
}

func TestClient_Validation(t *testing.T) {
	rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
		return ok200(`{}`), nil
	}}
	c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
	require.NoError(t, err)
	ctx := context.Background()

	bad := twap(c, "ETH/USDT", "0")
	_, err = c.PlaceOrder(ctx, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	bad = twap(c, "ETH/USDT", "1")
	bad.Side = "HOLD"
	_, err = c.PlaceOrder(ctx, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.PlaceMany(ctx, nil, types.CreateManyOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	o := twap(c, "ETH/USDT", "1")
	_, err = c.PlaceMany(ctx, []types.OrderRequest{o, o}, types.CreateManyOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.CancelMany(ctx, []int64{1, 0})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.CancelOrder(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.GetOrders(ctx, nil, nil)
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = c.FindOrders(ctx, types.FindParams{StartMs: 10, EndMs: 5})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	assert.Empty(t, rt.requests)
}

func TestClient_ConcurrentPlaceOrder(t *testing.T) {
	var seq atomic.Int64
	rt := &recordingTransport{respond: func(*types.Request) (*types.Response, error) {
		return ok200(`{"order_id":` + decimal.NewFromInt(seq.Add(1)).String() + `}`), nil
	}}
	c, err := NewClient(testCreds, Options{BaseURL: testBase, Transport: rt})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := twap(c, "ETH/USDT", "1")
			o.ClientOrderID = ""
			_, err := c.PlaceOrder(context.Background(), o)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, rt.requests, n)
	ids := map[string]bool{}
	for _, req := range rt.requests {
		var body struct {
			ClientOrderID string `json:"client_order_id"`
		}
		require.NoError(t, json.Unmarshal(req.Body, &body))
		ids[body.ClientOrderID] = true
	}
	assert.Len(t, ids, n)
}

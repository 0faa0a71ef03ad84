package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joripage/matching-engine/pkg/account"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/marketdata"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/joripage/matching-engine/pkg/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOMS struct {
	got oms.PlaceOrderRequest
	res *matching.MatchResult
	err error
}

func (f *fakeOMS) PlaceOrder(_ context.Context, req oms.PlaceOrderRequest) (*matching.MatchResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeBooks struct {
	depth int
}

func (f *fakeBooks) Snapshot(_ context.Context, symbol string, depth int) (orderbook.Snapshot, error) {
	if symbol != "ABC" {
		return orderbook.Snapshot{}, fmt.Errorf("%w: %s", matching.ErrUnknownSymbol, symbol)
	}
	f.depth = depth
	return orderbook.Snapshot{
		Symbol: "ABC",
		Bids:   []orderbook.LevelView{{Price: 99, Quantity: 5, Orders: 2}},
		Asks:   []orderbook.LevelView{},
	}, nil
}

type fakePrices struct{}

func (fakePrices) LatestPrices(context.Context) (map[string]marketdata.LatestPrice, error) {
	return map[string]marketdata.LatestPrice{"ABC": {Price: 101, Timestamp: 7}}, nil
}

func (fakePrices) History(_ context.Context, symbol string, limit int) ([]matching.PriceUpdate, error) {
	return []matching.PriceUpdate{{Symbol: symbol, Price: int64(limit)}}, nil
}

type fakeAccounts struct {
	page, limit int
}

func (f *fakeAccounts) Profile(_ context.Context, userID string) (*account.Profile, error) {
	if userID != "alice" {
		return nil, fmt.Errorf("%w: %s", account.ErrUnknownUser, userID)
	}
	return &account.Profile{ID: "alice", Name: "Alice", WalletBalance: 900}, nil
}

func (f *fakeAccounts) Holdings(_ context.Context, userID string) ([]account.Position, error) {
	return []account.Position{{Symbol: "ABC", Quantity: 3, AvgPrice: decimal.NewFromInt(100), CurrentPrice: 110}}, nil
}

func (f *fakeAccounts) Holding(_ context.Context, userID, symbol string) (*account.Position, error) {
	if symbol != "ABC" {
		return nil, repo.ErrNotFound
	}
	return &account.Position{Symbol: "ABC", Quantity: 3}, nil
}

func (f *fakeAccounts) Orders(_ context.Context, userID string, page, limit int) (*account.OrderPage, error) {
	f.page, f.limit = page, limit
	return &account.OrderPage{
		Data:       []account.OrderView{{ID: "o1", Symbol: "ABC"}},
		Pagination: account.Pagination{Page: page, Limit: limit, Total: 1, TotalPages: 1},
	}, nil
}

// fakeStream replays a fixed set of updates and then ends the stream.
type fakeStream struct {
	symbol  string
	updates []matching.PriceUpdate
}

func (f *fakeStream) Stream(_ context.Context, symbol string) (<-chan matching.PriceUpdate, error) {
	f.symbol = symbol
	ch := make(chan matching.PriceUpdate, len(f.updates))
	for _, u := range f.updates {
		ch <- u
	}
	close(ch)
	return ch, nil
}

func newTestRouter(o *fakeOMS, b *fakeBooks, opts ...HandlerOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(o, b, fakePrices{}, &fakeAccounts{}, 10, opts...), logging.NewNop())
}

func do(r http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlaceOrder(t *testing.T) {
	o := &fakeOMS{res: &matching.MatchResult{OrderID: "o1", Symbol: "ABC", Status: orderbook.OPEN, OriginalQty: 5, RemainingQty: 5, Rested: true}}
	r := newTestRouter(o, &fakeBooks{})

	w := do(r, http.MethodPost, "/orders", "alice", map[string]any{
		"symbol": "ABC", "side": "buy", "type": "limit", "price": 100, "quantity": 5,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", o.got.UserID)
	require.NotNil(t, o.got.Price)
	assert.Equal(t, int64(100), *o.got.Price)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var res matching.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "o1", res.OrderID)
	assert.True(t, res.Rested)
}

func TestPlaceOrderErrors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		err    error
		want   int
	}{
		{"missing user header", "", nil, http.StatusUnauthorized},
		{"validation", "alice", fmt.Errorf("%w: quantity", oms.ErrValidation), http.StatusBadRequest},
		{"unknown user", "alice", oms.ErrUnknownUser, http.StatusUnauthorized},
		{"unknown symbol", "alice", matching.ErrUnknownSymbol, http.StatusNotFound},
		{"engine down", "alice", matching.ErrEngineStopped, http.StatusServiceUnavailable},
		{"settlement", "alice", fmt.Errorf("%w: %w", matching.ErrSettlementFailed, errors.New("db gone")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeOMS{err: tt.err}, &fakeBooks{})
			w := do(r, http.MethodPost, "/orders", tt.userID, map[string]any{
				"symbol": "ABC", "side": "buy", "type": "market", "quantity": 1,
			})
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestPlaceOrderInternalErrorIsOpaque(t *testing.T) {
	r := newTestRouter(&fakeOMS{err: errors.New("pq: connection refused")}, &fakeBooks{})
	w := do(r, http.MethodPost, "/orders", "alice", map[string]any{"symbol": "ABC"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestGetOrderBook(t *testing.T) {
	b := &fakeBooks{}
	r := newTestRouter(&fakeOMS{}, b)

	w := do(r, http.MethodGet, "/orderbook/ABC", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, b.depth)
	var snap orderbook.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, int64(99), snap.Bids[0].Price)

	w = do(r, http.MethodGet, "/orderbook/ABC?depth=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, b.depth)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/orderbook/ABC?depth=x", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/orderbook/NOPE", "", nil).Code)
}

func TestMarketRoutes(t *testing.T) {
	r := newTestRouter(&fakeOMS{}, &fakeBooks{})

	w := do(r, http.MethodGet, "/market/prices", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"prices":{"ABC":{"price":101,"timestamp":7}}}`, w.Body.String())

	w = do(r, http.MethodGet, "/market/ABC/history?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []matching.PriceUpdate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, int64(5), history[0].Price)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&fakeOMS{}, &fakeBooks{})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", nil).Code)

	w := do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestUserRoutes(t *testing.T) {
	accounts := &fakeAccounts{}
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&fakeOMS{}, &fakeBooks{}, fakePrices{}, accounts, 10), logging.NewNop())

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/user/profile", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/user/profile", "mallory", nil).Code)

	w := do(r, http.MethodGet, "/user/profile", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p account.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, int64(900), p.WalletBalance)

	w = do(r, http.MethodGet, "/user/holdings", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"avg_price":"100"`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/user/holdings/ABC", "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/user/holdings/XYZ", "alice", nil).Code)

	w = do(r, http.MethodGet, "/user/orders?page=2&limit=5", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, accounts.page)
	assert.Equal(t, 5, accounts.limit)
	var page account.OrderPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "o1", page.Data[0].ID)

	do(r, http.MethodGet, "/user/orders", "alice", nil)
	assert.Equal(t, 1, accounts.page)
	assert.Equal(t, account.DefaultPageSize, accounts.limit)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/user/orders?page=x", "alice", nil).Code)
}

func TestStreamPrices(t *testing.T) {
	stream := &fakeStream{updates: []matching.PriceUpdate{
		{Symbol: "ABC", Price: 101, Quantity: 2, Timestamp: 7},
		{Symbol: "ABC", Price: 102, Quantity: 1, Timestamp: 8},
	}}
	r := newTestRouter(&fakeOMS{}, &fakeBooks{}, WithPriceStream(stream))

	w := do(r, http.MethodGet, "/market/stream/ABC", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC", stream.symbol)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event:price")
	assert.Contains(t, body, `"price":101`)
	assert.Contains(t, body, `"price":102`)

	do(r, http.MethodGet, "/market/stream", "", nil)
	assert.Empty(t, stream.symbol)
}

func TestStreamPricesUnavailable(t *testing.T) {
	r := newTestRouter(&fakeOMS{}, &fakeBooks{})
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/market/stream", "", nil).Code)
}

func TestCloseStreamsEndsOpenStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeOMS{}, &fakeBooks{}, fakePrices{}, &fakeAccounts{}, 10, WithPriceStream(idleStream{}))
	r := NewRouter(h, logging.NewNop())

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- do(r, http.MethodGet, "/market/stream", "", nil) }()
	h.CloseStreams()

	w := <-done
	assert.Equal(t, http.StatusOK, w.Code)
}

// idleStream never publishes.
type idleStream struct{}

func (idleStream) Stream(context.Context, string) (<-chan matching.PriceUpdate, error) {
	return make(chan matching.PriceUpdate), nil
}

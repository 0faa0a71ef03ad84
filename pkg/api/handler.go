package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joripage/matching-engine/pkg/account"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/marketdata"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/oms"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/joripage/matching-engine/pkg/repo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	userIDHeader        = "X-User-ID"
	defaultHistoryLimit = 50
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req oms.PlaceOrderRequest) (*matching.MatchResult, error)
}

type BookReader interface {
	Snapshot(ctx context.Context, symbol string, depth int) (orderbook.Snapshot, error)
}

type PriceReader interface {
	LatestPrices(ctx context.Context) (map[string]marketdata.LatestPrice, error)
	History(ctx context.Context, symbol string, limit int) ([]matching.PriceUpdate, error)
}

type AccountReader interface {
	Profile(ctx context.Context, userID string) (*account.Profile, error)
	Holdings(ctx context.Context, userID string) ([]account.Position, error)
	Holding(ctx context.Context, userID, symbol string) (*account.Position, error)
	Orders(ctx context.Context, userID string, page, limit int) (*account.OrderPage, error)
}

// PriceStreamer delivers live price updates until ctx is done. An empty
// symbol means every symbol.
type PriceStreamer interface {
	Stream(ctx context.Context, symbol string) (<-chan matching.PriceUpdate, error)
}

type HandlerOption func(*Handler)

// WithPriceStream enables the server-sent event routes.
func WithPriceStream(s PriceStreamer) HandlerOption {
	return func(h *Handler) { h.stream = s }
}

// Handler holds the HTTP handler dependencies.
type Handler struct {
	orders       OrderPlacer
	books        BookReader
	prices       PriceReader
	accounts     AccountReader
	stream       PriceStreamer
	defaultDepth int

	closing   chan struct{}
	closeOnce sync.Once
}

func NewHandler(orders OrderPlacer, books BookReader, prices PriceReader, accounts AccountReader, defaultDepth int, opts ...HandlerOption) *Handler {
	h := &Handler{
		orders:       orders,
		books:        books,
		prices:       prices,
		accounts:     accounts,
		defaultDepth: defaultDepth,
		closing:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CloseStreams ends every open price stream. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait on them.
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(h *Handler, logger *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestContext(logger), AccessLog())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/orders", h.PlaceOrder)
	r.GET("/orderbook/:symbol", h.GetOrderBook)

	market := r.Group("/market")
	{
		market.GET("/prices", h.GetLatestPrices)
		market.GET("/:symbol/history", h.GetPriceHistory)
		market.GET("/stream", h.StreamPrices)
		market.GET("/stream/:symbol", h.StreamPrices)
	}

	user := r.Group("/user", RequireUser())
	{
		user.GET("/profile", h.GetProfile)
		user.GET("/holdings", h.GetHoldings)
		user.GET("/holdings/:symbol", h.GetHolding)
		user.GET("/orders", h.GetOrders)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PlaceOrder handles POST /orders. The caller is identified by X-User-ID.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req oms.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.UserID = c.GetHeader(userIDHeader)
	if req.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + userIDHeader})
		return
	}

	res, err := h.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetOrderBook handles GET /orderbook/:symbol?depth=N.
func (h *Handler) GetOrderBook(c *gin.Context) {
	depth, ok := intQuery(c, "depth", h.defaultDepth)
	if !ok {
		return
	}
	snap, err := h.books.Snapshot(c.Request.Context(), c.Param("symbol"), depth)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) GetLatestPrices(c *gin.Context) {
	prices, err := h.prices.LatestPrices(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

// GetPriceHistory handles GET /market/:symbol/history?limit=N, newest first.
func (h *Handler) GetPriceHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	history, err := h.prices.History(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// StreamPrices handles GET /market/stream and /market/stream/:symbol as
// server-sent events, one "price" event per trade.
func (h *Handler) StreamPrices(c *gin.Context) {
	if h.stream == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price stream unavailable"})
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	symbol := c.Param("symbol")
	updates, err := h.stream.Stream(ctx, symbol)
	if err != nil {
		h.writeError(c, err)
		return
	}
	logging.FromContext(ctx).Info(ctx, "price stream opened", zap.String("symbol", symbol))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("price", u)
			c.Writer.Flush()
		}
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.accounts.Profile(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetHoldings(c *gin.Context) {
	positions, err := h.accounts.Holdings(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (h *Handler) GetHolding(c *gin.Context) {
	p, err := h.accounts.Holding(c.Request.Context(), userID(c), c.Param("symbol"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetOrders handles GET /user/orders?page=N&limit=M, newest first.
func (h *Handler) GetOrders(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", account.DefaultPageSize)
	if !ok {
		return
	}
	res, err := h.accounts.Orders(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported as an opaque 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, oms.ErrValidation),
		errors.Is(err, matching.ErrInvalidOrder),
		errors.Is(err, orderbook.ErrInvalidOrderPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, oms.ErrUnknownUser), errors.Is(err, account.ErrUnknownUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrUnknownSymbol), errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrNotInitialized), errors.Is(err, matching.ErrEngineStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		ctx := c.Request.Context()
		logging.FromContext(ctx).Error(ctx, "request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package oms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/metrics"
	"github.com/joripage/matching-engine/pkg/model"
	riskrule "github.com/joripage/matching-engine/pkg/oms/risk_rule"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"github.com/joripage/matching-engine/pkg/repo"
	"go.uber.org/zap"
)

// Matcher is the engine surface the OMS submits orders to.
type Matcher interface {
	MatchOrder(ctx context.Context, in *orderbook.Order) (*matching.MatchResult, error)
}

type PlaceOrderRequest struct {
	UserID   string          `json:"-"`
	Symbol   string          `json:"symbol"`
	Side     model.OrderSide `json:"side"`
	Type     model.OrderType `json:"type"`
	Price    *int64          `json:"price,omitempty"`
	Quantity int64           `json:"quantity"`
}

// OMS validates incoming orders, persists them and hands them to the engine.
type OMS struct {
	repo    repo.IRepo
	matcher Matcher
	rules   []riskrule.RiskRule
	logger  *logging.Logger
	now     func() time.Time
}

func NewOMS(r repo.IRepo, matcher Matcher, rules []riskrule.RiskRule, logger *logging.Logger) *OMS {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OMS{
		repo:    r,
		matcher: matcher,
		rules:   rules,
		logger:  logger,
		now:     time.Now,
	}
}

// DefaultRules returns the funds, holdings and tick size checks.
func DefaultRules(r repo.IRepo, tickSizes map[string][]riskrule.TickSizeBand) []riskrule.RiskRule {
	return []riskrule.RiskRule{
		riskrule.FundsRule{},
		riskrule.NewHoldingsRule(r.Holding(), r.Order()),
		riskrule.NewTickSizeRule(tickSizes),
	}
}

// PlaceOrder rejects invalid orders without side effects. Accepted orders
// are stored as open and matched before PlaceOrder returns.
func (s *OMS) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*matching.MatchResult, error) {
	if err := checkShape(req); err != nil {
		return nil, s.reject(ctx, "shape", req, err)
	}

	symbol, err := s.repo.Symbol().GetBySymbol(ctx, req.Symbol)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, s.reject(ctx, "unknown_symbol", req, fmt.Errorf("%w: %s", matching.ErrUnknownSymbol, req.Symbol))
	}
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().Get(ctx, req.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, s.reject(ctx, "unknown_user", req, fmt.Errorf("%w: %s", ErrUnknownUser, req.UserID))
	}
	if err != nil {
		return nil, err
	}

	candidate := &riskrule.Order{
		User:     user,
		Symbol:   symbol,
		Side:     req.Side,
		Type:     req.Type,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	for _, rule := range s.rules {
		if err := rule.Check(ctx, candidate); err != nil {
			return nil, s.reject(ctx, "risk", req, fmt.Errorf("%w: %w", ErrValidation, err))
		}
	}

	row := &model.Order{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		SymbolID:          symbol.ID,
		Side:              req.Side,
		Type:              req.Type,
		Price:             req.Price,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		Status:            model.OrderStatusOpen,
		CreatedAt:         s.now(),
	}
	if _, err := s.repo.Order().Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	in, err := row.ToBook(symbol.Symbol)
	if err != nil {
		return nil, err
	}
	res, err := s.matcher.MatchOrder(ctx, in)
	if err != nil {
		s.logger.Error(ctx, "match order failed", zap.String("order_id", row.ID), zap.Error(err))
		return res, err
	}
	s.logger.Debug(ctx, "order placed",
		zap.String("order_id", row.ID),
		zap.String("symbol", symbol.Symbol),
		zap.String("status", string(res.Status)),
		zap.Int("trades", len(res.Trades)))
	return res, nil
}

func (s *OMS) reject(ctx context.Context, reason string, req PlaceOrderRequest, err error) error {
	metrics.OrdersRejectedTotal.WithLabelValues(reason).Inc()
	s.logger.Info(ctx, "order rejected",
		zap.String("user_id", req.UserID), zap.String("symbol", req.Symbol),
		zap.String("reason", reason), zap.Error(err))
	return err
}

func checkShape(req PlaceOrderRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrValidation)
	}
	if req.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrValidation)
	}
	if req.Side != model.OrderSideBuy && req.Side != model.OrderSideSell {
		return fmt.Errorf("%w: side must be buy or sell", ErrValidation)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	switch req.Type {
	case model.OrderTypeLimit:
		if req.Price == nil || *req.Price <= 0 {
			return fmt.Errorf("%w: limit order needs a positive price", ErrValidation)
		}
	case model.OrderTypeMarket:
		if req.Price != nil {
			return fmt.Errorf("%w: market order must not carry a price", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: type must be limit or market", ErrValidation)
	}
	return nil
}

// Package account serves a user's own profile, positions and order history.
package account

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/joripage/matching-engine/pkg/model"
	"github.com/joripage/matching-engine/pkg/repo"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var ErrUnknownUser = errors.New("unknown user")

type Profile struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	WalletBalance int64          `json:"wallet_balance"`
	Role          model.UserRole `json:"role"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Position is a holding valued at the symbol's last trade price.
type Position struct {
	Symbol            string          `json:"symbol"`
	Quantity          int64           `json:"quantity"`
	AvgPrice          decimal.Decimal `json:"avg_price"`
	CurrentPrice      int64           `json:"current_price"`
	TotalValue        int64           `json:"total_value"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

type OrderView struct {
	ID                string            `json:"id"`
	Symbol            string            `json:"symbol"`
	Side              model.OrderSide   `json:"side"`
	Type              model.OrderType   `json:"type"`
	Price             *int64            `json:"price"`
	Quantity          int64             `json:"quantity"`
	RemainingQuantity int64             `json:"remaining_quantity"`
	Status            model.OrderStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type OrderPage struct {
	Data       []OrderView `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Service struct {
	repo repo.IRepo
}

func NewService(r repo.IRepo) *Service {
	return &Service{repo: r}
}

func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:            u.ID,
		Name:          u.Name,
		WalletBalance: u.WalletBalance,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
	}, nil
}

func (s *Service) Holdings(ctx context.Context, userID string) ([]Position, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	holdings, err := s.repo.Holding().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	symbols, err := s.symbolsByID(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Position, 0, len(holdings))
	for _, h := range holdings {
		sym, ok := symbols[h.SymbolID]
		if !ok {
			continue
		}
		out = append(out, position(h, sym))
	}
	return out, nil
}

// Holding returns the user's position in one symbol. repo.ErrNotFound is
// returned for an unknown symbol or when the user holds none of it.
func (s *Service) Holding(ctx context.Context, userID, symbol string) (*Position, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	sym, err := s.repo.Symbol().GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	h, err := s.repo.Holding().Get(ctx, userID, sym.ID)
	if err != nil {
		return nil, err
	}
	p := position(h, sym)
	return &p, nil
}

// Orders returns one page of the user's orders, newest first. page starts at
// 1; limit falls back to DefaultPageSize and is capped at MaxPageSize.
func (s *Service) Orders(ctx context.Context, userID string, page, limit int) (*OrderPage, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	rows, total, err := s.repo.Order().ListByUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	symbols, err := s.symbolsByID(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		data = append(data, OrderView{
			ID:                o.ID,
			Symbol:            symbols[o.SymbolID].Symbol,
			Side:              o.Side,
			Type:              o.Type,
			Price:             o.Price,
			Quantity:          o.Quantity,
			RemainingQuantity: o.RemainingQuantity,
			Status:            o.Status,
			CreatedAt:         o.CreatedAt,
			UpdatedAt:         o.UpdatedAt,
		})
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &OrderPage{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func (s *Service) user(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.repo.User().Get(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return u, err
}

func (s *Service) symbolsByID(ctx context.Context) (map[string]*model.Symbol, error) {
	list, err := s.repo.Symbol().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.Symbol, len(list))
	for _, sym := range list {
		out[sym.ID] = sym
	}
	return out, nil
}

var hundred = decimal.NewFromInt(100)

func position(h *model.Holding, sym *model.Symbol) Position {
	qty := decimal.NewFromInt(h.Quantity)
	current := decimal.NewFromInt(sym.LastTradePrice)

	percent := decimal.Zero
	if !h.AvgPrice.IsZero() {
		percent = current.Sub(h.AvgPrice).Div(h.AvgPrice).Mul(hundred).Round(2)
	}
	return Position{
		Symbol:            sym.Symbol,
		Quantity:          h.Quantity,
		AvgPrice:          h.AvgPrice,
		CurrentPrice:      sym.LastTradePrice,
		TotalValue:        h.Quantity * sym.LastTradePrice,
		TotalInvested:     qty.Mul(h.AvgPrice),
		ProfitLoss:        qty.Mul(current.Sub(h.AvgPrice)),
		ProfitLossPercent: percent,
	}
}

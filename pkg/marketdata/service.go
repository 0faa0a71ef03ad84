package marketdata

import (
	"context"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/repo"
	"go.uber.org/zap"
)

// PriceCache is the read side of a price publisher.
type PriceCache interface {
	Latest(ctx context.Context, symbol string) (matching.PriceUpdate, bool, error)
	History(ctx context.Context, symbol string, limit int) ([]matching.PriceUpdate, error)
}

type LatestPrice struct {
	Price     int64 `json:"price"`
	Timestamp int64 `json:"timestamp"`
}

type Service struct {
	cache   PriceCache
	symbols repo.ISymbol
	logger  *logging.Logger
}

func NewService(cache PriceCache, symbols repo.ISymbol, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cache:   cache,
		symbols: symbols,
		logger:  logger,
	}
}

// LatestPrices returns the latest price of every symbol. The cache is tried
// first; symbols it does not know fall back to the stored last trade price.
func (s *Service) LatestPrices(ctx context.Context) (map[string]LatestPrice, error) {
	rows, err := s.symbols.List(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]LatestPrice, len(rows))
	for _, row := range rows {
		if s.cache != nil {
			u, ok, err := s.cache.Latest(ctx, row.Symbol)
			if err != nil {
				s.logger.Warn(ctx, "read cached price failed", zap.String("symbol", row.Symbol), zap.Error(err))
			} else if ok {
				prices[row.Symbol] = LatestPrice{Price: u.Price, Timestamp: u.Timestamp}
				continue
			}
		}
		prices[row.Symbol] = LatestPrice{Price: row.LastTradePrice, Timestamp: row.UpdatedAt.UnixMilli()}
	}
	return prices, nil
}

// History returns recent price updates for symbol, newest first.
func (s *Service) History(ctx context.Context, symbol string, limit int) ([]matching.PriceUpdate, error) {
	if _, err := s.symbols.GetBySymbol(ctx, symbol); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return []matching.PriceUpdate{}, nil
	}
	return s.cache.History(ctx, symbol, limit)
}

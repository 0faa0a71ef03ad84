package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

// ListBySymbol returns the latest trades of a symbol, newest first.
func (r *TradeSQLRepo) ListBySymbol(ctx context.Context, symbolID string, limit int) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Where("symbol_id = ?", symbolID).
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

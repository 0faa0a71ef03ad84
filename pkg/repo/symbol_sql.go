package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type SymbolSQLRepo struct {
	db *gorm.DB
}

func NewSymbolSQLRepo(db *gorm.DB) *SymbolSQLRepo {
	return &SymbolSQLRepo{
		db: db,
	}
}

func (r *SymbolSQLRepo) List(ctx context.Context) ([]*model.Symbol, error) {
	var symbols []*model.Symbol
	err := r.db.WithContext(ctx).Order("symbol ASC").Find(&symbols).Error
	return symbols, err
}

func (r *SymbolSQLRepo) GetBySymbol(ctx context.Context, symbol string) (*model.Symbol, error) {
	var s model.Symbol
	if err := r.db.WithContext(ctx).First(&s, "symbol = ?", symbol).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type HoldingSQLRepo struct {
	db *gorm.DB
}

func NewHoldingSQLRepo(db *gorm.DB) *HoldingSQLRepo {
	return &HoldingSQLRepo{
		db: db,
	}
}

func (r *HoldingSQLRepo) Get(ctx context.Context, userID, symbolID string) (*model.Holding, error) {
	var h model.Holding
	err := r.db.WithContext(ctx).
		First(&h, "user_id = ? AND symbol_id = ?", userID, symbolID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (r *HoldingSQLRepo) ListByUser(ctx context.Context, userID string) ([]*model.Holding, error) {
	var holdings []*model.Holding
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("symbol_id ASC").
		Find(&holdings).Error
	return holdings, err
}

package repo

import (
	"context"
	"fmt"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type OrderSQLRepo struct {
	db *gorm.DB
}

func NewOrderSQLRepo(db *gorm.DB) *OrderSQLRepo {
	return &OrderSQLRepo{
		db: db,
	}
}

func (s *OrderSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (r *OrderSQLRepo) Create(ctx context.Context, record *model.Order) (*model.Order, error) {
	return record, r.dbWithContext(ctx).Create(record).Error
}

func (r *OrderSQLRepo) Get(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.dbWithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *OrderSQLRepo) LoadResting(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.dbWithContext(ctx).
		Where("status IN ?", []model.OrderStatus{model.OrderStatusOpen, model.OrderStatusPartial}).
		Where("type = ?", model.OrderTypeLimit).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderSQLRepo) Finalize(ctx context.Context, id string, remaining int64, status model.OrderStatus) error {
	res := r.dbWithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"remaining_quantity": remaining,
			"status":             status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finalize order %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *OrderSQLRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Order, int64, error) {
	var total int64
	if err := r.dbWithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := r.dbWithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *OrderSQLRepo) CommittedSellQuantity(ctx context.Context, userID, symbolID string) (int64, error) {
	var total int64
	err := r.dbWithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Where("user_id = ? AND symbol_id = ?", userID, symbolID).
		Where("side = ? AND type = ?", model.OrderSideSell, model.OrderTypeLimit).
		Where("status IN ?", []model.OrderStatus{model.OrderStatusOpen, model.OrderStatusPartial}).
		Scan(&total).Error
	return total, err
}

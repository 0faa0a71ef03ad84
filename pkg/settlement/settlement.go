package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// avgPricePlaces matches the numeric(20,4) holdings.avg_price column.
const avgPricePlaces = 4

// Settler writes fills to the database. Each fill is one transaction.
type Settler struct {
	db     *gorm.DB
	logger *logging.Logger
}

var _ matching.Settler = (*Settler)(nil)

func NewSettler(db *gorm.DB, logger *logging.Logger) *Settler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Settler{
		db:     db,
		logger: logger,
	}
}

// Settle applies a fill: both order rows, the trade row, the symbol's last
// trade price, and the wallets and holdings of non-bot participants. Any
// error rolls the whole fill back.
func (s *Settler) Settle(ctx context.Context, fill matching.Fill) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOrder(tx, fill.Buy); err != nil {
			return err
		}
		if err := updateOrder(tx, fill.Sell); err != nil {
			return err
		}

		trade := &model.Trade{
			ID:          uuid.NewString(),
			BuyOrderID:  fill.Buy.OrderID,
			SellOrderID: fill.Sell.OrderID,
			SymbolID:    fill.SymbolID,
			Price:       fill.Price,
			Quantity:    fill.Quantity,
			CreatedAt:   fill.Timestamp,
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}

		if err := tx.Model(&model.Symbol{}).
			Where("id = ?", fill.SymbolID).
			Update("last_trade_price", fill.Price).Error; err != nil {
			return fmt.Errorf("update last trade price: %w", err)
		}

		buyer, err := loadUser(tx, fill.Buy.UserID)
		if err != nil {
			return err
		}
		seller, err := loadUser(tx, fill.Sell.UserID)
		if err != nil {
			return err
		}

		value := fill.TradedValue()
		if !buyer.IsBot() {
			if err := adjustWallet(tx, buyer.ID, -value); err != nil {
				return err
			}
			if err := addHolding(tx, buyer.ID, fill.SymbolID, fill.Quantity, fill.Price); err != nil {
				return err
			}
		}
		if !seller.IsBot() {
			if err := adjustWallet(tx, seller.ID, value); err != nil {
				return err
			}
			if err := s.reduceHolding(ctx, tx, seller.ID, fill.SymbolID, fill.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func updateOrder(tx *gorm.DB, side matching.FillSide) error {
	res := tx.Model(&model.Order{}).
		Where("id = ?", side.OrderID).
		Updates(map[string]any{
			"remaining_quantity": side.Remaining,
			"status":             model.StatusFromBook(side.Status),
		})
	if res.Error != nil {
		return fmt.Errorf("update order %s: %w", side.OrderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errOrderNotFound, side.OrderID)
	}
	return nil
}

func loadUser(tx *gorm.DB, id string) (*model.User, error) {
	var u model.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", errUserNotFound, id)
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &u, nil
}

func adjustWallet(tx *gorm.DB, userID string, delta int64) error {
	err := tx.Model(&model.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("adjust wallet %s: %w", userID, err)
	}
	return nil
}

// addHolding increases the buyer's position, folding the fill price into a
// quantity-weighted average.
func addHolding(tx *gorm.DB, userID, symbolID string, qty, price int64) error {
	var h model.Holding
	err := tx.First(&h, "user_id = ? AND symbol_id = ?", userID, symbolID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		h = model.Holding{
			UserID:   userID,
			SymbolID: symbolID,
			Quantity: qty,
			AvgPrice: decimal.NewFromInt(price),
		}
		if err := tx.Create(&h).Error; err != nil {
			return fmt.Errorf("create holding: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load holding: %w", err)
	}

	newQty := h.Quantity + qty
	avg := WeightedAverage(h.Quantity, h.AvgPrice, qty, price)
	err = tx.Model(&model.Holding{}).
		Where("user_id = ? AND symbol_id = ?", userID, symbolID).
		Updates(map[string]any{"quantity": newQty, "avg_price": avg}).Error
	if err != nil {
		return fmt.Errorf("update holding: %w", err)
	}
	return nil
}

func (s *Settler) reduceHolding(ctx context.Context, tx *gorm.DB, userID, symbolID string, qty int64) error {
	res := tx.Model(&model.Holding{}).
		Where("user_id = ? AND symbol_id = ?", userID, symbolID).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("reduce holding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Warn(ctx, "seller has no holding row",
			zap.String("user_id", userID), zap.String("symbol_id", symbolID), zap.Int64("quantity", qty))
	}
	return nil
}

// WeightedAverage returns the average cost after buying qty at price on top
// of oldQty held at oldAvg. An empty or short position restarts at price.
func WeightedAverage(oldQty int64, oldAvg decimal.Decimal, qty, price int64) decimal.Decimal {
	newQty := oldQty + qty
	if oldQty <= 0 || newQty <= 0 {
		return decimal.NewFromInt(price)
	}
	total := oldAvg.Mul(decimal.NewFromInt(oldQty)).Add(decimal.NewFromInt(qty * price))
	return total.DivRound(decimal.NewFromInt(newQty), avgPricePlaces)
}

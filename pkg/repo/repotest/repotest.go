// Package repotest opens throwaway SQLite databases carrying the full schema.
package repotest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, id string, wallet int64, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{ID: id, Name: id, WalletBalance: wallet, Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

func CreateSymbol(t testing.TB, db *gorm.DB, id, symbol string, lastPrice int64) *model.Symbol {
	t.Helper()
	s := &model.Symbol{ID: id, Symbol: symbol, Name: symbol, LastTradePrice: lastPrice}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create symbol %s: %v", symbol, err)
	}
	return s
}

func CreateLimitOrder(t testing.TB, db *gorm.DB, id, userID, symbolID string, side model.OrderSide, price, qty int64, createdAt time.Time) *model.Order {
	t.Helper()
	o := &model.Order{
		ID: id, UserID: userID, SymbolID: symbolID, Side: side,
		Type: model.OrderTypeLimit, Price: &price,
		Quantity: qty, RemainingQuantity: qty,
		Status: model.OrderStatusOpen, CreatedAt: createdAt,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("create order %s: %v", id, err)
	}
	return o
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	UserID    string          `gorm:"primaryKey;size:64"`
	SymbolID  string          `gorm:"primaryKey;size:64"`
	Quantity  int64
	AvgPrice  decimal.Decimal `gorm:"type:numeric(20,4)"`
	UpdatedAt time.Time
}

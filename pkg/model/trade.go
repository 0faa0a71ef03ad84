package model

import "time"

type Trade struct {
	ID          string `gorm:"primaryKey;size:64"`
	BuyOrderID  string `gorm:"size:64;index"`
	SellOrderID string `gorm:"size:64;index"`
	SymbolID    string `gorm:"size:64;index"`
	Price       int64
	Quantity    int64
	CreatedAt   time.Time
}

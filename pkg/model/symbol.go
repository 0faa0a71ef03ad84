package model

import "time"

type Symbol struct {
	ID             string `gorm:"primaryKey;size:64"`
	Symbol         string `gorm:"uniqueIndex;size:32"`
	Name           string
	LastTradePrice int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

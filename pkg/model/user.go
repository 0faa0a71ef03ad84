package model

import "time"

type UserRole string

const (
	UserRoleTrader UserRole = "trader"
	// bots provide simulated liquidity; their wallet and holdings are never mutated by settlement
	UserRoleBot UserRole = "bot"
)

type User struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string
	WalletBalance int64
	Role          UserRole `gorm:"size:16;default:trader"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) IsBot() bool {
	return u.Role == UserRoleBot
}

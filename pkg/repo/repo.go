package repo

import (
	"errors"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type IRepo interface {
	Order() IOrder
	Symbol() ISymbol
	User() IUser
	Holding() IHolding
	Trade() ITrade
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) IRepo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Order() IOrder {
	return NewOrderSQLRepo(r.db)
}

func (r *Repo) Symbol() ISymbol {
	return NewSymbolSQLRepo(r.db)
}

func (r *Repo) User() IUser {
	return NewUserSQLRepo(r.db)
}

func (r *Repo) Holding() IHolding {
	return NewHoldingSQLRepo(r.db)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.db)
}

// Models lists every table model, for AutoMigrate in tests and local runs.
func Models() []any {
	return []any{&model.User{}, &model.Symbol{}, &model.Order{}, &model.Trade{}, &model.Holding{}}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/model"
	"gorm.io/gorm"
)

type UserSQLRepo struct {
	db *gorm.DB
}

func NewUserSQLRepo(db *gorm.DB) *UserSQLRepo {
	return &UserSQLRepo{
		db: db,
	}
}

func (r *UserSQLRepo) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

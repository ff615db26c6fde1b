package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/model"
	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) Create(ctx context.Context, u *model.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("Username already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", u.Username, err)
	}

	return nil
}

func (r repository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u *model.User
	err := r.db.
		WithContext(ctx).
		Where("username = ?", username).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find user with username %q", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user with username %q: %w", username, err)
	}

	return u, nil
}

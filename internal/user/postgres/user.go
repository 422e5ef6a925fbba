package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/hira-inspection/internal"
	userDatamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/user"
	"github.com/frahmantamala/hira-inspection/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	dm := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrUserExists
		}
		return err
	}
	u.ID = dm.ID
	u.CreatedAt = dm.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*user.User, error) {
	login = user.NormalizeLogin(login)
	var dm userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", login, login).
		Order("id").
		First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("LOWER(username) = ? OR LOWER(email) = ?", user.NormalizeLogin(username), user.NormalizeLogin(email)).
		Count(&n).Error
	return n > 0, err
}

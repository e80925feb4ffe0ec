package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore persists users and roles through GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) RoleExists(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&Role{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *GormStore) CreateRole(ctx context.Context, name string) error {
	return g.db.WithContext(ctx).Where(Role{Name: name}).FirstOrCreate(&Role{}).Error
}

func (g *GormStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := g.db.WithContext(ctx).Preload("Roles").Where("lower(username) = lower(?)", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *GormStore) CreateUser(ctx context.Context, user *User, role string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Role
		if err := tx.Where("name = ?", role).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}

		var n int64
		if err := tx.Model(&User{}).Where("lower(username) = lower(?)", user.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUserExists
		}

		user.Roles = nil
		err := tx.Omit("Roles").Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		if err != nil {
			return err
		}
		return tx.Model(user).Association("Roles").Append(&r)
	})
}

func (g *GormStore) AddUserToRole(ctx context.Context, userID, role string) error {
	db := g.db.WithContext(ctx)

	var r Role
	if err := db.Where("name = ?", role).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	var user User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return db.Model(&user).Association("Roles").Append(&r)
}

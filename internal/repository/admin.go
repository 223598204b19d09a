package repository

import (
	"context"
	"time"

	"vendor-service/internal/model"
)

// GetAdminByUsername loads an administrator by login name
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	defer track("query")()
	var u model.AdminUser
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateAdmin inserts an administrator; Password must already be hashed
func (s *Store) CreateAdmin(ctx context.Context, u *model.AdminUser) error {
	defer track("insert")()
	return mapError(s.db.WithContext(ctx).Create(u).Error)
}

// TouchAdminLogin records the time of a successful login
func (s *Store) TouchAdminLogin(ctx context.Context, id uint, at time.Time) error {
	defer track("update")()
	return mapError(s.db.WithContext(ctx).
		Model(&model.AdminUser{}).
		Where("id = ?", id).
		Update("last_login", at).Error)
}

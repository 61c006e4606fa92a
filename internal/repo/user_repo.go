// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model
// and the follow-list queries built on top of it.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (exported here as ErrNotFound).
//   - CreateUser returns ErrDuplicate when email or username is taken.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// CreateUser inserts a user row. Email is stored lower-cased.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by id.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by (case-insensitive) email.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserFieldTaken reports whether column (email or username) already holds value.
func UserFieldTaken(ctx context.Context, db *gorm.DB, column, value string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where(column+" = ?", value).
		Count(&n).Error
	return n > 0, err
}

// CountFollowedAuthors returns how many authors userID follows.
func CountFollowedAuthors(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListFollowedAuthorsPage returns the authors followed by userID, most
// recently followed first.
func ListFollowedAuthorsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC, users.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

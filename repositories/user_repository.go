package repositories

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shopbot/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate loads the user for a Telegram id, creating it on first
// contact. The stored username is refreshed when it changed.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:       telegramID,
			Username: username,
			Role:     models.RoleUser,
			State:    models.StateNormal,
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if username != "" && user.Username != username {
		user.Username = username
		r.db.WithContext(ctx).Model(&user).Update("username", username)
	}
	return &user, nil
}

func (r *UserRepository) ByID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureRole grants the role, creating the user row if it does not exist
// yet. Used to seed admins from config at startup.
func (r *UserRepository) EnsureRole(ctx context.Context, telegramID int64, role string) error {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{ID: telegramID, Role: role, State: models.StateNormal}
		return r.db.WithContext(ctx).Create(&user).Error
	}
	if err != nil {
		return err
	}
	if user.Role == role {
		return nil
	}
	return r.db.WithContext(ctx).Model(&user).Update("role", role).Error
}

// SetConversation writes state and scratch together; a nil scratch clears
// the column so the two can never drift apart.
func (r *UserRepository) SetConversation(ctx context.Context, telegramID int64, state string, scratch datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", telegramID).
		Updates(map[string]interface{}{"state": state, "scratch": scratch})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateContact(ctx context.Context, telegramID int64, phone, address string) error {
	updates := map[string]interface{}{}
	if phone != "" {
		updates["phone"] = phone
	}
	if address != "" {
		updates["address"] = address
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", telegramID).
		Updates(updates).Error
}

// Admins returns every user with the admin role, for order notifications.
func (r *UserRepository) Admins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Find(&users).Error
	return users, err
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shopbot/models"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) LinesFor(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).Order("id").Find(&lines).Error
	return lines, err
}

func (r *CartRepository) LineByID(ctx context.Context, id uint) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).Preload("Product").First(&line, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// LineFor returns the unique line for a (user, product) pair.
func (r *CartRepository) LineFor(ctx context.Context, userID int64, productID uint) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		First(&line, "user_id = ? AND product_id = ?", userID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *CartRepository) Save(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *CartRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.CartLine{}, id).Error
}

func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartLine{}).Error
}

package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shopbot/models"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the category with the given name, creating it only
// when no category with that name exists yet.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name, description string) (*models.Category, bool, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error
	if err == nil {
		return &category, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	category = models.Category{Name: name, Description: description}
	if err := category.Validate(); err != nil {
		return nil, false, err
	}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, false, err
	}
	return &category, true, nil
}

func (r *CategoryRepository) ByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

// Update saves the category; the BeforeSave hook regenerates the slug
// when the name changed.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

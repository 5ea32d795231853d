package handlers

import (
	"context"

	"go.uber.org/zap"

	"shopbot/cart"
	"shopbot/models"
	"shopbot/orders"
	"shopbot/states"
)

// Store interfaces are defined here, on the consuming side; the gorm
// repositories satisfy them and tests substitute in-memory fakes.

type UserStore interface {
	ByID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateContact(ctx context.Context, telegramID int64, phone, address string) error
	Admins(ctx context.Context) ([]models.User, error)
}

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	ByID(ctx context.Context, id uint) (*models.Product, error)
	ByCategory(ctx context.Context, categoryID uint, offset, limit int) ([]models.Product, int64, error)
	Delete(ctx context.Context, id uint) error
}

type CategoryStore interface {
	GetOrCreate(ctx context.Context, name, description string) (*models.Category, bool, error)
	ByID(ctx context.Context, id uint) (*models.Category, error)
	ByName(ctx context.Context, name string) (*models.Category, error)
	All(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

// Env bundles the collaborators every handler works against.
type Env struct {
	States     *states.Store
	Cart       *cart.Engine
	Orders     *orders.Service
	Users      UserStore
	Products   ProductStore
	Categories CategoryStore
	PageSize   int
	Logger     *zap.Logger
}

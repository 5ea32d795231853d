// Package cart implements the shopping cart: one line per (user,
// product), quantities never above current stock. Stock is re-read on
// every mutation and the check-then-act sequence runs under a per-user
// lock, so a concurrent pair of adds cannot oversell.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"shopbot/locks"
	"shopbot/models"
	"shopbot/repositories"
)

var (
	ErrBadQuantity       = errors.New("quantity must be positive")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrNotYourLine       = errors.New("cart line belongs to another user")
)

type ProductStore interface {
	ByID(ctx context.Context, id uint) (*models.Product, error)
}

// LineStore persists cart lines. LinesFor and LineByID must return
// lines with the Product association populated; Total and the cart
// views read prices and names off it.
type LineStore interface {
	LinesFor(ctx context.Context, userID int64) ([]models.CartLine, error)
	LineByID(ctx context.Context, id uint) (*models.CartLine, error)
	LineFor(ctx context.Context, userID int64, productID uint) (*models.CartLine, error)
	Save(ctx context.Context, line *models.CartLine) error
	Delete(ctx context.Context, id uint) error
	Clear(ctx context.Context, userID int64) error
}

type Engine struct {
	products ProductStore
	lines    LineStore
	mu       *locks.KeyedMutex
}

func NewEngine(products ProductStore, lines LineStore) *Engine {
	return &Engine{
		products: products,
		lines:    lines,
		mu:       locks.NewKeyedMutex(),
	}
}

// Add puts qty units of a product into the user's cart, incrementing the
// existing line when there is one. It fails without mutating anything
// when qty is not positive, the product is gone, or the resulting line
// quantity would exceed current stock.
func (e *Engine) Add(ctx context.Context, userID int64, productID uint, qty int) (*models.CartLine, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}

	e.mu.Lock(userID)
	defer e.mu.Unlock(userID)

	product, err := e.products.ByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	line, err := e.lines.LineFor(ctx, userID, productID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		line = &models.CartLine{UserID: userID, ProductID: productID}
	case err != nil:
		return nil, err
	}

	want := line.Quantity + qty
	if want > product.Stock {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrInsufficientStock, product.Stock, want)
	}

	line.Quantity = want
	if err := e.lines.Save(ctx, line); err != nil {
		return nil, err
	}
	line.Product = *product
	return line, nil
}

// SetQuantity replaces a line's quantity. Zero or negative removes the
// line; otherwise the new quantity is checked against live stock.
func (e *Engine) SetQuantity(ctx context.Context, userID int64, lineID uint, qty int) error {
	e.mu.Lock(userID)
	defer e.mu.Unlock(userID)

	line, err := e.lineOf(ctx, userID, lineID)
	if err != nil {
		return err
	}

	if qty <= 0 {
		return e.lines.Delete(ctx, line.ID)
	}

	product, err := e.products.ByID(ctx, line.ProductID)
	if errors.Is(err, repositories.ErrNotFound) {
		// Product deleted out from under the cart: drop the line.
		_ = e.lines.Delete(ctx, line.ID)
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return fmt.Errorf("%w: have %d, want %d", ErrInsufficientStock, product.Stock, qty)
	}

	line.Quantity = qty
	return e.lines.Save(ctx, line)
}

func (e *Engine) Remove(ctx context.Context, userID int64, lineID uint) error {
	e.mu.Lock(userID)
	defer e.mu.Unlock(userID)

	line, err := e.lineOf(ctx, userID, lineID)
	if err != nil {
		return err
	}
	return e.lines.Delete(ctx, line.ID)
}

func (e *Engine) Clear(ctx context.Context, userID int64) error {
	e.mu.Lock(userID)
	defer e.mu.Unlock(userID)
	return e.lines.Clear(ctx, userID)
}

func (e *Engine) Lines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return e.lines.LinesFor(ctx, userID)
}

// Total sums unit price times quantity over all lines, in exact decimal
// arithmetic.
func (e *Engine) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	lines, err := e.lines.LinesFor(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Subtotal())
	}
	return total, nil
}

func (e *Engine) IsEmpty(ctx context.Context, userID int64) (bool, error) {
	lines, err := e.lines.LinesFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(lines) == 0, nil
}

// lineOf loads a line and refuses lines owned by a different user.
func (e *Engine) lineOf(ctx context.Context, userID int64, lineID uint) (*models.CartLine, error) {
	line, err := e.lines.LineByID(ctx, lineID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	if line.UserID != userID {
		return nil, ErrNotYourLine
	}
	return line, nil
}

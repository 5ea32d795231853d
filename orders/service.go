// Package orders owns the order lifecycle: creation at checkout commit
// with atomic stock decrements, and the role-gated status machine
// NEW -> PROCESSING -> {COMPLETED, CANCELLED}.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopbot/models"
	"shopbot/repositories"
)

var (
	ErrForbidden     = errors.New("not allowed for this role")
	ErrBadTransition = errors.New("status transition not allowed")
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOutOfStock    = errors.New("product out of stock")
)

// transitions is the full lifecycle table; anything absent is refused.
// COMPLETED and CANCELLED have no outgoing edges, so they are absorbing.
var transitions = map[string][]string{
	models.OrderStatusNew:        {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	ByID(ctx context.Context, id uint) (*models.Order, error)
	ByUser(ctx context.Context, userID int64) ([]models.Order, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error)
}

type ProductStore interface {
	ByID(ctx context.Context, id uint) (*models.Product, error)
	DecrementStock(ctx context.Context, id uint, qty int) (bool, error)
}

type CartStore interface {
	LinesFor(ctx context.Context, userID int64) ([]models.CartLine, error)
	Clear(ctx context.Context, userID int64) error
}

// Notifier fans a freshly created order out to the admins.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order, user *models.User)
}

type Service struct {
	orders   OrderStore
	products ProductStore
	carts    CartStore
	notifier Notifier
	logger   *zap.Logger
}

func NewService(orders OrderStore, products ProductStore, carts CartStore, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		carts:    carts,
		notifier: notifier,
		logger:   logger,
	}
}

// CheckoutInfo is the contact data collected by the checkout wizard.
type CheckoutInfo struct {
	Phone   string
	Address string
	Comment string
}

// SkippedLine reports a cart line that could not be ordered because the
// stock ran out between cart add and checkout commit.
type SkippedLine struct {
	ProductName string
	Quantity    int
}

// CheckoutCart creates one order per cart line. For each line the stock
// is decremented with a conditional update before the order row is
// written; a line whose stock ran out is skipped and reported, without
// aborting orders already created for sibling lines. The cart is cleared
// afterwards.
func (s *Service) CheckoutCart(ctx context.Context, user *models.User, info CheckoutInfo) ([]models.Order, []SkippedLine, error) {
	lines, err := s.carts.LinesFor(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	var created []models.Order
	var skipped []SkippedLine
	for i := range lines {
		line := &lines[i]
		order, err := s.createOrder(ctx, user, line.ProductID, line.Quantity, info)
		switch {
		case errors.Is(err, ErrOutOfStock), errors.Is(err, repositories.ErrNotFound):
			skipped = append(skipped, SkippedLine{ProductName: line.Product.Name, Quantity: line.Quantity})
			continue
		case err != nil:
			return created, skipped, err
		}
		created = append(created, *order)
	}

	if err := s.carts.Clear(ctx, user.ID); err != nil {
		s.logger.Error("failed to clear cart after checkout", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return created, skipped, nil
}

// BuyNow creates a single order for a direct purchase, bypassing the cart.
func (s *Service) BuyNow(ctx context.Context, user *models.User, productID uint, qty int, info CheckoutInfo) (*models.Order, error) {
	if qty <= 0 {
		return nil, models.ErrBadQuantity
	}
	return s.createOrder(ctx, user, productID, qty, info)
}

func (s *Service) createOrder(ctx context.Context, user *models.User, productID uint, qty int, info CheckoutInfo) (*models.Order, error) {
	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	ok, err := s.products.DecrementStock(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutOfStock, product.Name)
	}

	order := &models.Order{
		Number:  uuid.NewString(),
		UserID:  user.ID,
		Phone:   info.Phone,
		Address: info.Address,
		Comment: info.Comment,
		Status:  models.OrderStatusNew,
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    qty,
			UnitPrice:   product.Price,
		}},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("number", order.Number),
		zap.Int64("user_id", user.ID))

	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, order, user)
	}
	return order, nil
}

// Transition moves an order through the lifecycle table. Only staff may
// transition; a disallowed edge (including any edge out of a terminal
// status) fails without mutation.
func (s *Service) Transition(ctx context.Context, actor *models.User, orderID uint, to string) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	order, err := s.orders.ByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, to) {
		return order, fmt.Errorf("%w: %s -> %s", ErrBadTransition, order.Status, to)
	}

	// The current status is part of the update predicate, so a racing
	// transition loses cleanly.
	ok, err := s.orders.UpdateStatus(ctx, orderID, order.Status, to)
	if err != nil {
		return order, err
	}
	if !ok {
		return order, fmt.Errorf("%w: order moved concurrently", ErrBadTransition)
	}

	s.logger.Info("order status changed",
		zap.Uint("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", to),
		zap.Int64("actor", actor.ID))

	order.Status = to
	return order, nil
}

// Order returns one order, visible to staff and to its owner only.
func (s *Service) Order(ctx context.Context, actor *models.User, orderID uint) (*models.Order, error) {
	order, err := s.orders.ByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return order, nil
}

// OrdersFor lists a user's own orders.
func (s *Service) OrdersFor(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.orders.ByUser(ctx, userID)
}

// Recent lists the newest orders for the staff panel.
func (s *Service) Recent(ctx context.Context, actor *models.User, limit int) ([]models.Order, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return s.orders.Recent(ctx, limit)
}

package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shopbot/callback"
	"shopbot/cart"
	"shopbot/models"
	"shopbot/orders"
)

// callbackHandler serves inline-button presses. The token is decoded
// once and the verb dispatched exhaustively; a token that does not
// decode answers with a notice instead of crashing anything.
type callbackHandler struct {
	env *Env
}

func NewCallbackHandler(env *Env) Handler {
	return &callbackHandler{env: env}
}

func (h *callbackHandler) Name() string { return "callback" }

func (h *callbackHandler) CanHandle(ev *Event) bool {
	return ev.Kind == KindCallback
}

func (h *callbackHandler) Handle(ctx context.Context, ev *Event) (*Render, error) {
	cb, err := callback.Decode(ev.Token)
	if err != nil {
		h.env.Logger.Warn("undecodable callback token",
			zap.String("token", ev.Token), zap.Int64("user_id", ev.User.ID))
		return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil
	}

	e := h.env
	switch cb.Verb {
	// Browsing.
	case callback.VerbHome:
		return e.viewMainMenu(ev), nil
	case callback.VerbCatalog, callback.VerbBack:
		return e.viewCatalog(ctx, ev)
	case callback.VerbCategory, callback.VerbSelectCategory, callback.VerbMore:
		return e.viewCategoryPage(ctx, ev, cb.ID, cb.Page)
	case callback.VerbProduct:
		return e.viewProductCard(ctx, ev, cb.ID)

	// Cart.
	case callback.VerbCart:
		return e.viewCart(ctx, ev)
	case callback.VerbAddToCart:
		return h.addToCart(ctx, ev, cb.ID)
	case callback.VerbCartPlus:
		return h.bumpLine(ctx, ev, cb.ID, +1)
	case callback.VerbCartMinus:
		return h.bumpLine(ctx, ev, cb.ID, -1)
	case callback.VerbCartRemove:
		if err := e.Cart.Remove(ctx, ev.User.ID, cb.ID); err != nil && !errors.Is(err, cart.ErrLineNotFound) {
			return nil, err
		}
		return e.viewCart(ctx, ev)
	case callback.VerbCartClear:
		if err := e.Cart.Clear(ctx, ev.User.ID); err != nil {
			return nil, err
		}
		return &Render{ChatID: ev.ChatID, Text: textEmptyCart, Notice: "Cart cleared"}, nil

	// Checkout.
	case callback.VerbCartCheckout:
		return e.startCheckout(ctx, ev, 0)
	case callback.VerbDirectBuy:
		return e.startCheckout(ctx, ev, cb.ID)
	case callback.VerbConfirmOrder, callback.VerbCancelOrder:
		// Meaningful only inside the checkout wizard, which sits before
		// this handler in the chain. Reaching here means the wizard is
		// gone (restart, expiry): the button is stale.
		return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil

	// Orders.
	case callback.VerbOrderDetails:
		return e.viewOrderDetails(ctx, ev, cb.ID)
	case callback.VerbAcceptOrder:
		return h.transition(ctx, ev, cb.ID, models.OrderStatusProcessing)
	case callback.VerbCompleteOrder:
		return h.transition(ctx, ev, cb.ID, models.OrderStatusCompleted)
	case callback.VerbAdminCancelOrder:
		return h.transition(ctx, ev, cb.ID, models.OrderStatusCancelled)

	// Admin panel.
	case callback.VerbAdmin:
		return e.viewAdmin(ctx, ev)
	case callback.VerbAdminOrders:
		return e.viewAdminOrders(ctx, ev)
	case callback.VerbAdminCategories:
		return h.adminCategories(ctx, ev)
	case callback.VerbAddProduct:
		return e.startAddProduct(ctx, ev)
	case callback.VerbAddCategory:
		return e.startAddCategory(ctx, ev)
	case callback.VerbEditProduct:
		return e.startEditProduct(ctx, ev, cb.ID)
	case callback.VerbEditCategory:
		return e.startEditCategory(ctx, ev, cb.ID)
	case callback.VerbDeleteProduct:
		return h.deleteProduct(ctx, ev, cb.ID)
	case callback.VerbDeleteCategory:
		return h.deleteCategory(ctx, ev, cb.ID)
	}

	// Decode accepts only the closed verb set, so this is unreachable.
	return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil
}

func (h *callbackHandler) addToCart(ctx context.Context, ev *Event, productID uint) (*Render, error) {
	line, err := h.env.Cart.Add(ctx, ev.User.ID, productID, 1)
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	case errors.Is(err, cart.ErrInsufficientStock):
		return &Render{ChatID: ev.ChatID, Notice: textOutOfStock}, nil
	case err != nil:
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "✅ Added to cart: " + line.Product.Name,
		Notice: "Added to cart",
	}, nil
}

// bumpLine adjusts a cart line by one; minus on a single unit removes
// the line.
func (h *callbackHandler) bumpLine(ctx context.Context, ev *Event, lineID uint, delta int) (*Render, error) {
	line, err := h.env.Cart.Lines(ctx, ev.User.ID)
	if err != nil {
		return nil, err
	}
	var qty int
	found := false
	for _, l := range line {
		if l.ID == lineID {
			qty = l.Quantity
			found = true
			break
		}
	}
	if !found {
		return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil
	}

	err = h.env.Cart.SetQuantity(ctx, ev.User.ID, lineID, qty+delta)
	switch {
	case errors.Is(err, cart.ErrInsufficientStock):
		return &Render{ChatID: ev.ChatID, Notice: textOutOfStock}, nil
	case errors.Is(err, cart.ErrLineNotFound), errors.Is(err, cart.ErrProductNotFound):
		return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil
	case err != nil:
		return nil, err
	}
	return h.env.viewCart(ctx, ev)
}

func (h *callbackHandler) transition(ctx context.Context, ev *Event, orderID uint, to string) (*Render, error) {
	order, err := h.env.Orders.Transition(ctx, ev.User, orderID, to)
	switch {
	case errors.Is(err, orders.ErrForbidden):
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	case errors.Is(err, orders.ErrOrderNotFound):
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	case errors.Is(err, orders.ErrBadTransition):
		return &Render{
			ChatID: ev.ChatID,
			Text:   "🚫 This order cannot move to " + to + " from " + order.Status + ".",
			Notice: "Not allowed",
		}, nil
	case err != nil:
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   formatOrder(order),
		Inline: orderActionsKeyboard(order, true),
		Notice: "Order → " + to,
	}, nil
}

func (h *callbackHandler) adminCategories(ctx context.Context, ev *Event) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	categories, err := h.env.Categories.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return &Render{ChatID: ev.ChatID, Text: textEmptyCatalog}, nil
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "✏️ Categories:",
		Inline: adminCategoriesKeyboard(categories),
	}, nil
}

func (h *callbackHandler) deleteProduct(ctx context.Context, ev *Event, id uint) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err := h.env.Products.Delete(ctx, id); err != nil {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	return &Render{ChatID: ev.ChatID, Text: "🗑 Product deleted.", Notice: "Deleted"}, nil
}

func (h *callbackHandler) deleteCategory(ctx context.Context, ev *Event, id uint) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err := h.env.Categories.Delete(ctx, id); err != nil {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	return &Render{ChatID: ev.ChatID, Text: "🗑 Category deleted.", Notice: "Deleted"}, nil
}

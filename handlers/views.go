package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbot/models"
	"shopbot/orders"
	"shopbot/repositories"
)

// Views are the render builders shared by commands, callbacks and menu
// labels, so "🛒 Cart" typed, /cart-style commands and the cart button
// all produce the same screen.

func (e *Env) viewMainMenu(ev *Event) *Render {
	return &Render{
		ChatID: ev.ChatID,
		Text:   "🏠 Main menu",
		Reply:  mainMenuKeyboard(ev.User),
	}
}

func (e *Env) viewCatalog(ctx context.Context, ev *Event) (*Render, error) {
	categories, err := e.Categories.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return &Render{ChatID: ev.ChatID, Text: textEmptyCatalog}, nil
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "🛍 Choose a category:",
		Inline: categoriesKeyboard(categories),
	}, nil
}

func (e *Env) viewCategoryPage(ctx context.Context, ev *Event, categoryID uint, page int) (*Render, error) {
	category, err := e.Categories.ByID(ctx, categoryID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	if err != nil {
		return nil, err
	}

	offset := page * e.PageSize
	products, total, err := e.Products.ByCategory(ctx, categoryID, offset, e.PageSize)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &Render{
			ChatID: ev.ChatID,
			Text:   fmt.Sprintf("No products in %s yet.", category.Name),
			Inline: categoriesKeyboard(nil),
		}, nil
	}

	hasMore := int64(offset+len(products)) < total
	return &Render{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("📂 %s — page %d", category.Name, page+1),
		Inline: productPageKeyboard(products, categoryID, page, hasMore),
	}, nil
}

func (e *Env) viewProductCard(ctx context.Context, ev *Event, productID uint) (*Render, error) {
	product, err := e.Products.ByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n\n", product.Name)
	if product.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", product.Description)
	}
	fmt.Fprintf(&b, "💰 Price: %s\n", product.Price.StringFixed(2))
	if product.Stock > 0 {
		fmt.Fprintf(&b, "📊 In stock: %d", product.Stock)
	} else {
		b.WriteString("📊 Out of stock")
	}

	return &Render{
		ChatID:      ev.ChatID,
		Text:        b.String(),
		PhotoFileID: product.ImageFileID,
		Inline:      productCardKeyboard(product, 0, ev.User.IsAdmin()),
	}, nil
}

func (e *Env) viewCart(ctx context.Context, ev *Event) (*Render, error) {
	lines, err := e.Cart.Lines(ctx, ev.User.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &Render{ChatID: ev.ChatID, Text: textEmptyCart}, nil
	}

	total, err := e.Cart.Total(ctx, ev.User.ID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("🛒 Your cart:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s — %s × %d = %s\n",
			l.Product.Name, l.Product.Price.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s", total.StringFixed(2))

	return &Render{
		ChatID: ev.ChatID,
		Text:   b.String(),
		Inline: cartKeyboard(lines),
	}, nil
}

func (e *Env) viewMyOrders(ctx context.Context, ev *Event) (*Render, error) {
	list, err := e.Orders.OrdersFor(ctx, ev.User.ID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &Render{ChatID: ev.ChatID, Text: "You have no orders yet."}, nil
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "📦 Your orders:",
		Inline: ordersListKeyboard(list),
	}, nil
}

func (e *Env) viewAdmin(ctx context.Context, ev *Event) (*Render, error) {
	if !ev.User.IsStaff() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "⚙️ Admin panel",
		Inline: adminKeyboard(ev.User),
	}, nil
}

func (e *Env) viewAdminOrders(ctx context.Context, ev *Event) (*Render, error) {
	list, err := e.Orders.Recent(ctx, ev.User, 20)
	if errors.Is(err, orders.ErrForbidden) {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &Render{ChatID: ev.ChatID, Text: "No orders yet."}, nil
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "📦 Recent orders:",
		Inline: ordersListKeyboard(list),
	}, nil
}

func (e *Env) viewOrderDetails(ctx context.Context, ev *Event, orderID uint) (*Render, error) {
	order, err := e.Orders.Order(ctx, ev.User, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	if errors.Is(err, orders.ErrForbidden) {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   formatOrder(order),
		Inline: orderActionsKeyboard(order, ev.User.IsStaff()),
	}, nil
}

func formatOrder(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Order #%d (%s)\n", o.ID, o.Number)
	fmt.Fprintf(&b, "Status: %s\n\n", o.Status)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "• %s — %s × %d = %s\n",
			item.ProductName, item.UnitPrice.StringFixed(2), item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.Total().StringFixed(2))
	fmt.Fprintf(&b, "📱 %s\n🏠 %s", o.Phone, o.Address)
	if o.Comment != "" {
		fmt.Fprintf(&b, "\n💬 %s", o.Comment)
	}
	return b.String()
}

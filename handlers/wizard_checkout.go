package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopbot/callback"
	"shopbot/orders"
	"shopbot/repositories"
	"shopbot/states"
)

// Checkout wizard: phone (skipped when on file) → address → optional
// comment → inline confirmation → commit. productID zero means a cart
// checkout; nonzero is a direct single-product purchase.

func (e *Env) startCheckout(ctx context.Context, ev *Event, productID uint) (*Render, error) {
	draft := &states.CheckoutDraft{ProductID: productID, Quantity: 1}

	if productID != 0 {
		product, err := e.Products.ByID(ctx, productID)
		if errors.Is(err, repositories.ErrNotFound) {
			return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
		}
		if err != nil {
			return nil, err
		}
		if product.Stock < 1 {
			return &Render{ChatID: ev.ChatID, Text: textOutOfStock, Notice: textOutOfStock}, nil
		}
	} else {
		empty, err := e.Cart.IsEmpty(ctx, ev.User.ID)
		if err != nil {
			return nil, err
		}
		if empty {
			return &Render{ChatID: ev.ChatID, Text: textEmptyCart, Notice: "Cart is empty"}, nil
		}
	}

	if ev.User.Phone != "" {
		draft.Phone = ev.User.Phone
		if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindWaitingForAddress}, draft); err != nil {
			return nil, err
		}
		return reprompt(ev, fmt.Sprintf("📱 Using your phone on file (%s).\n🏠 Send the delivery address:", ev.User.Phone)), nil
	}

	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindWaitingForPhone}, draft); err != nil {
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "📱 Send your phone number or share your contact:",
		Reply:  phoneKeyboard(),
	}, nil
}

func (e *Env) stepCheckoutPhone(ctx context.Context, ev *Event) (*Render, error) {
	phone := ev.ContactPhone
	if phone == "" {
		phone = strings.TrimSpace(ev.Text)
	}
	if !validPhone(phone) {
		return &Render{
			ChatID: ev.ChatID,
			Text:   "That does not look like a phone number. Send it like +71234567890:",
			Reply:  phoneKeyboard(),
		}, nil
	}

	draft, err := e.checkoutDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.Phone = phone

	// Remember the phone for next time.
	if err := e.Users.UpdateContact(ctx, ev.User.ID, phone, ""); err != nil {
		e.Logger.Warn("could not store phone", zap.Int64("user_id", ev.User.ID), zap.Error(err))
	}

	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindWaitingForAddress}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, "🏠 Send the delivery address:"), nil
}

func (e *Env) stepCheckoutAddress(ctx context.Context, ev *Event) (*Render, error) {
	address := strings.TrimSpace(ev.Text)
	if address == "" {
		return reprompt(ev, "The address must not be empty. Send the delivery address:"), nil
	}

	draft, err := e.checkoutDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.Address = address
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindWaitingForComment}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, fmt.Sprintf("💬 Add a comment (or %q to skip):", skipToken)), nil
}

func (e *Env) stepCheckoutComment(ctx context.Context, ev *Event) (*Render, error) {
	draft, err := e.checkoutDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	if text := strings.TrimSpace(ev.Text); text != skipToken {
		draft.Comment = text
	}

	summary, err := e.checkoutSummary(ctx, ev, draft)
	if err != nil {
		return nil, err
	}
	if summary == "" {
		return e.abortWizard(ctx, ev, textEntityGone)
	}

	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindConfirmingOrder}, draft); err != nil {
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   summary,
		Inline: confirmOrderKeyboard(),
	}, nil
}

func (e *Env) stepCheckoutConfirm(ctx context.Context, ev *Event) (*Render, error) {
	if ev.Kind != KindCallback {
		return &Render{
			ChatID: ev.ChatID,
			Text:   "Please confirm or cancel with the buttons above.",
			Inline: confirmOrderKeyboard(),
		}, nil
	}

	cb, err := callback.Decode(ev.Token)
	if err != nil {
		return &Render{ChatID: ev.ChatID, Notice: textStaleButton}, nil
	}
	if cb.Verb == callback.VerbCancelOrder {
		if err := e.States.Reset(ctx, ev.User.ID); err != nil {
			return nil, err
		}
		return &Render{ChatID: ev.ChatID, Text: "Order cancelled.", Reply: mainMenuKeyboard(ev.User), Notice: "Cancelled"}, nil
	}

	draft, derr := e.checkoutDraft(ev)
	if derr != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	info := orders.CheckoutInfo{Phone: draft.Phone, Address: draft.Address, Comment: draft.Comment}

	if draft.ProductID != 0 {
		return e.commitBuyNow(ctx, ev, draft, info)
	}
	return e.commitCartCheckout(ctx, ev, info)
}

func (e *Env) commitBuyNow(ctx context.Context, ev *Event, draft *states.CheckoutDraft, info orders.CheckoutInfo) (*Render, error) {
	order, err := e.Orders.BuyNow(ctx, ev.User, draft.ProductID, draft.Quantity, info)
	switch {
	case errors.Is(err, orders.ErrOutOfStock), errors.Is(err, repositories.ErrNotFound):
		return e.abortWizard(ctx, ev, textOutOfStock)
	case err != nil:
		return nil, &CommitError{Err: err}
	}
	if err := e.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, &CommitError{Err: err}
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("🎉 Order #%d placed! Total: %s", order.ID, order.Total().StringFixed(2)),
		Reply:  mainMenuKeyboard(ev.User),
		Notice: "Order placed",
	}, nil
}

func (e *Env) commitCartCheckout(ctx context.Context, ev *Event, info orders.CheckoutInfo) (*Render, error) {
	created, skipped, err := e.Orders.CheckoutCart(ctx, ev.User, info)
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return e.abortWizard(ctx, ev, textEmptyCart)
	case err != nil:
		return nil, &CommitError{Err: err}
	}
	if err := e.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, &CommitError{Err: err}
	}

	var b strings.Builder
	if len(created) > 0 {
		fmt.Fprintf(&b, "🎉 Placed %d order(s):\n", len(created))
		for _, o := range created {
			fmt.Fprintf(&b, "• #%d — %s\n", o.ID, o.Total().StringFixed(2))
		}
	}
	for _, s := range skipped {
		fmt.Fprintf(&b, "⚠️ %s × %d skipped: out of stock\n", s.ProductName, s.Quantity)
	}
	if b.Len() == 0 {
		b.WriteString(textOutOfStock)
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   b.String(),
		Reply:  mainMenuKeyboard(ev.User),
		Notice: "Done",
	}, nil
}

// checkoutSummary renders the confirmation screen; empty string means
// everything the draft references is gone.
func (e *Env) checkoutSummary(ctx context.Context, ev *Event, draft *states.CheckoutDraft) (string, error) {
	var b strings.Builder
	b.WriteString("🧾 Please confirm your order:\n\n")

	if draft.ProductID != 0 {
		product, err := e.Products.ByID(ctx, draft.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "• %s — %s × %d\n", product.Name, product.Price.StringFixed(2), draft.Quantity)
		fmt.Fprintf(&b, "\nTotal: %s\n", product.Price.Mul(decimal.NewFromInt(int64(draft.Quantity))).StringFixed(2))
	} else {
		lines, err := e.Cart.Lines(ctx, ev.User.ID)
		if err != nil {
			return "", err
		}
		if len(lines) == 0 {
			return "", nil
		}
		for _, l := range lines {
			fmt.Fprintf(&b, "• %s — %s × %d\n", l.Product.Name, l.Product.Price.StringFixed(2), l.Quantity)
		}
		total, err := e.Cart.Total(ctx, ev.User.ID)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nTotal: %s\n", total.StringFixed(2))
	}

	fmt.Fprintf(&b, "📱 %s\n🏠 %s", draft.Phone, draft.Address)
	if draft.Comment != "" {
		fmt.Fprintf(&b, "\n💬 %s", draft.Comment)
	}
	return b.String(), nil
}

func (e *Env) checkoutDraft(ev *Event) (*states.CheckoutDraft, error) {
	var draft states.CheckoutDraft
	if len(ev.User.Scratch) == 0 {
		return nil, errors.New("no checkout draft")
	}
	if err := states.UnmarshalDraft(ev.User.Scratch, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func validPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

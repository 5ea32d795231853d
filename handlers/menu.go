package handlers

import "context"

// menuHandler matches the reply-keyboard labels. It sits after the
// wizard handler, so a label typed mid-wizard is wizard input, and after
// the callback handler, which never sees text events anyway.
type menuHandler struct {
	env *Env
}

func NewMenuHandler(env *Env) Handler {
	return &menuHandler{env: env}
}

func (h *menuHandler) Name() string { return "menu" }

func (h *menuHandler) CanHandle(ev *Event) bool {
	if ev.Kind != KindText {
		return false
	}
	switch ev.Text {
	case labelCatalog, labelCart, labelOrders, labelAdmin:
		return true
	}
	return false
}

func (h *menuHandler) Handle(ctx context.Context, ev *Event) (*Render, error) {
	switch ev.Text {
	case labelCatalog:
		return h.env.viewCatalog(ctx, ev)
	case labelCart:
		return h.env.viewCart(ctx, ev)
	case labelOrders:
		return h.env.viewMyOrders(ctx, ev)
	case labelAdmin:
		return h.env.viewAdmin(ctx, ev)
	}
	return nil, nil
}

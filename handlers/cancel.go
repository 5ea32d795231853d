package handlers

import "context"

// cancelHandler sits first in the chain: the escape tokens win over any
// wizard step, so no state is ever inescapable.
type cancelHandler struct {
	env *Env
}

func NewCancelHandler(env *Env) Handler {
	return &cancelHandler{env: env}
}

func (h *cancelHandler) Name() string { return "cancel" }

func (h *cancelHandler) CanHandle(ev *Event) bool {
	return ev.IsEscape()
}

func (h *cancelHandler) Handle(ctx context.Context, ev *Event) (*Render, error) {
	if ev.State.IsNormal() {
		return &Render{
			ChatID: ev.ChatID,
			Text:   textNothingCancel,
			Reply:  mainMenuKeyboard(ev.User),
		}, nil
	}
	if err := h.env.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   textCancelled,
		Reply:  mainMenuKeyboard(ev.User),
	}, nil
}

package handlers

import (
	"context"
	"fmt"

	"shopbot/callback"
	"shopbot/states"
)

// wizardHandler owns every event that arrives while the user is inside a
// wizard. It sits after cancel and before commands, so typed menu labels
// become wizard input but the escape tokens still work.
type wizardHandler struct {
	env *Env
}

func NewWizardHandler(env *Env) Handler {
	return &wizardHandler{env: env}
}

func (h *wizardHandler) Name() string { return "wizard" }

func (h *wizardHandler) CanHandle(ev *Event) bool {
	if !ev.State.IsWizard() {
		return false
	}
	switch ev.Kind {
	case KindText, KindPhoto, KindContact:
		return true
	case KindCallback:
		cb, err := callback.Decode(ev.Token)
		if err != nil {
			return false
		}
		switch cb.Verb {
		case callback.VerbSelectCategory:
			return ev.State.Kind == states.KindAddingProductCategory
		case callback.VerbConfirmOrder, callback.VerbCancelOrder:
			return ev.State.Kind == states.KindConfirmingOrder
		}
	}
	return false
}

func (h *wizardHandler) Handle(ctx context.Context, ev *Event) (*Render, error) {
	e := h.env
	switch ev.State.Kind {
	case states.KindAddingProductName:
		return e.stepProductName(ctx, ev)
	case states.KindAddingProductPrice:
		return e.stepProductPrice(ctx, ev)
	case states.KindAddingProductStock:
		return e.stepProductStock(ctx, ev)
	case states.KindAddingProductCategory:
		return e.stepProductCategory(ctx, ev)
	case states.KindAddingProductDescription:
		return e.stepProductDescription(ctx, ev)
	case states.KindAddingProductImage:
		return e.stepProductImage(ctx, ev)

	case states.KindAddingCategoryName:
		return e.stepCategoryName(ctx, ev)
	case states.KindAddingCategoryDescription:
		return e.stepCategoryDescription(ctx, ev)

	case states.KindEditingProduct:
		return e.stepEditProduct(ctx, ev)
	case states.KindEditingCategory:
		return e.stepEditCategory(ctx, ev)

	case states.KindWaitingForPhone:
		return e.stepCheckoutPhone(ctx, ev)
	case states.KindWaitingForAddress:
		return e.stepCheckoutAddress(ctx, ev)
	case states.KindWaitingForComment:
		return e.stepCheckoutComment(ctx, ev)
	case states.KindConfirmingOrder:
		return e.stepCheckoutConfirm(ctx, ev)
	}
	return nil, fmt.Errorf("no wizard step bound to state %s", ev.State.Encode())
}

// reprompt keeps the current state and asks again.
func reprompt(ev *Event, text string) *Render {
	return &Render{ChatID: ev.ChatID, Text: text, Reply: cancelKeyboard()}
}

// abortWizard resets the state and tells the user why.
func (e *Env) abortWizard(ctx context.Context, ev *Event, text string) (*Render, error) {
	if err := e.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, err
	}
	return &Render{ChatID: ev.ChatID, Text: text, Reply: mainMenuKeyboard(ev.User)}, nil
}

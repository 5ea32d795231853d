package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shopbot/states"
)

// Handler is one link of the dispatch chain.
type Handler interface {
	Name() string
	CanHandle(ev *Event) bool
	Handle(ctx context.Context, ev *Event) (*Render, error)
}

// CommitError marks a failure that happened while committing a wizard.
// The dispatcher resets the user's state for these, so nobody is left
// stranded in a step that can no longer succeed.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return "commit failed: " + e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Dispatcher routes each inbound event to the first handler that claims
// it. The chain order is a contract, not an accident: cancel before
// wizard continuation before commands before callbacks before menu
// labels, so a menu label typed mid-wizard is wizard input and the
// escape tokens always win.
type Dispatcher struct {
	handlers []Handler
	users    UserStore
	states   *states.Store
	sink     MessageSink
	logger   *zap.Logger
}

func NewDispatcher(users UserStore, sink MessageSink, st *states.Store, logger *zap.Logger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{
		handlers: handlers,
		users:    users,
		states:   st,
		sink:     sink,
		logger:   logger,
	}
}

// Chain exposes the handler order for tests.
func (d *Dispatcher) Chain() []string {
	names := make([]string, len(d.handlers))
	for i, h := range d.handlers {
		names[i] = h.Name()
	}
	return names
}

// Dispatch handles one event to completion. Handling for a given user is
// serialized under the user's lock; nothing here may outlive the call.
// No handler error or panic ever escapes the update loop.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) {
	if ev == nil || ev.User == nil {
		return
	}

	d.states.Lock(ev.User.ID)
	defer d.states.Unlock(ev.User.ID)

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("handler panicked",
				zap.Int64("user_id", ev.User.ID),
				zap.Any("panic", rec))
			d.send(ctx, &Render{ChatID: ev.ChatID, Text: textInternalError})
		}
	}()

	// The event carries the user row as read before the lock was held.
	// Reload row and state here so an update queued behind another for
	// the same user sees that update's writes, not the stale snapshot.
	if fresh, err := d.users.ByID(ctx, ev.User.ID); err != nil {
		d.logger.Warn("user reload failed, handling with the queued snapshot",
			zap.Int64("user_id", ev.User.ID), zap.Error(err))
	} else {
		ev.User = fresh
		ev.State = d.states.Current(fresh.State)
	}

	for _, h := range d.handlers {
		if !h.CanHandle(ev) {
			continue
		}
		r, err := h.Handle(ctx, ev)
		if err != nil {
			r = d.handleError(ctx, ev, h, err)
		}
		if ev.Kind == KindCallback {
			notice := ""
			if r != nil {
				notice = r.Notice
			}
			_ = d.sink.AnswerCallback(ctx, ev.CallbackID, notice)
		}
		d.send(ctx, r)
		return
	}

	// Unhandled: well-defined fallback instead of silence.
	if ev.Kind == KindCallback {
		_ = d.sink.AnswerCallback(ctx, ev.CallbackID, "")
	}
	d.send(ctx, &Render{ChatID: ev.ChatID, Text: textUnhandled})
}

func (d *Dispatcher) handleError(ctx context.Context, ev *Event, h Handler, err error) *Render {
	var commit *CommitError
	if errors.As(err, &commit) {
		// A half-done commit cannot be retried by repeating the step;
		// reset so the cancel-free escape guarantee holds.
		if rerr := d.states.Reset(ctx, ev.User.ID); rerr != nil {
			d.logger.Error("state reset after commit failure failed",
				zap.Int64("user_id", ev.User.ID), zap.Error(rerr))
		}
		d.logger.Error("wizard commit failed",
			zap.String("handler", h.Name()),
			zap.Int64("user_id", ev.User.ID),
			zap.Error(err))
		return &Render{ChatID: ev.ChatID, Text: textCommitError}
	}

	d.logger.Error("handler failed",
		zap.String("handler", h.Name()),
		zap.Int64("user_id", ev.User.ID),
		zap.String("state", ev.State.Encode()),
		zap.Error(err))
	return &Render{ChatID: ev.ChatID, Text: textInternalError}
}

func (d *Dispatcher) send(ctx context.Context, r *Render) {
	if r == nil {
		return
	}
	if err := d.sink.Send(ctx, r); err != nil {
		d.logger.Error("render delivery failed", zap.Error(err))
	}
}

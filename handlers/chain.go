package handlers

import (
	"go.uber.org/zap"

	"shopbot/states"
)

// NewChainDispatcher wires the full handler chain in its contractual
// order: cancel, wizard, command, callback, menu.
func NewChainDispatcher(env *Env, sink MessageSink, st *states.Store, logger *zap.Logger) *Dispatcher {
	return NewDispatcher(env.Users, sink, st, logger,
		NewCancelHandler(env),
		NewWizardHandler(env),
		NewCommandHandler(env),
		NewCallbackHandler(env),
		NewMenuHandler(env),
	)
}

package handlers

import (
	"context"
	"fmt"
)

// commandHandler serves the slash commands.
type commandHandler struct {
	env *Env
}

func NewCommandHandler(env *Env) Handler {
	return &commandHandler{env: env}
}

func (h *commandHandler) Name() string { return "command" }

func (h *commandHandler) CanHandle(ev *Event) bool {
	return ev.Kind == KindCommand
}

func (h *commandHandler) Handle(ctx context.Context, ev *Event) (*Render, error) {
	switch ev.Command {
	case "start":
		return &Render{
			ChatID: ev.ChatID,
			Text:   fmt.Sprintf("👋 Welcome, %s!\nBrowse the catalog and order right here.", displayName(ev)),
			Reply:  mainMenuKeyboard(ev.User),
		}, nil
	case "help":
		return &Render{
			ChatID: ev.ChatID,
			Text: "Commands:\n" +
				"/start — main menu\n" +
				"/orders — your orders\n" +
				"/cancel — abort the current action\n" +
				"/id — your Telegram id",
		}, nil
	case "orders":
		return h.env.viewMyOrders(ctx, ev)
	case "admin":
		return h.env.viewAdmin(ctx, ev)
	case "id":
		return &Render{ChatID: ev.ChatID, Text: fmt.Sprintf("Your id: %d", ev.User.ID)}, nil
	default:
		return &Render{ChatID: ev.ChatID, Text: "Unknown command. Try /help."}, nil
	}
}

func displayName(ev *Event) string {
	if ev.User.Username != "" {
		return "@" + ev.User.Username
	}
	return "friend"
}

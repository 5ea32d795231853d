package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shopbot/models"
)

// AdminNotifier pushes every freshly created order to all admins. It
// satisfies orders.Notifier.
type AdminNotifier struct {
	users  UserStore
	sink   MessageSink
	logger *zap.Logger
}

func NewAdminNotifier(users UserStore, sink MessageSink, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{users: users, sink: sink, logger: logger}
}

func (n *AdminNotifier) OrderCreated(ctx context.Context, order *models.Order, user *models.User) {
	admins, err := n.users.Admins(ctx)
	if err != nil {
		n.logger.Error("could not list admins for notification",
			zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	text := fmt.Sprintf("🔔 New order from %s (id %d)\n\n%s", customerName(user), user.ID, formatOrder(order))
	for _, admin := range admins {
		r := &Render{
			ChatID: admin.ID,
			Text:   text,
			Inline: orderActionsKeyboard(order, true),
		}
		if err := n.sink.Send(ctx, r); err != nil {
			n.logger.Warn("admin notification failed",
				zap.Int64("admin_id", admin.ID),
				zap.Uint("order_id", order.ID),
				zap.Error(err))
		}
	}
}

func customerName(u *models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "customer"
}

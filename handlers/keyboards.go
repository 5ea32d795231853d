package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shopbot/callback"
	"shopbot/models"
)

func mainMenuKeyboard(user *models.User) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelCatalog),
			tgbotapi.NewKeyboardButton(labelCart),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelOrders),
		),
	}
	if user.IsStaff() {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(labelAdmin),
		))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("cancel")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func phoneKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Share my phone"),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("cancel")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func categoriesKeyboard(categories []models.Category) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, callback.Encode(callback.VerbCategory, c.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", callback.Encode(callback.VerbHome)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func productPageKeyboard(products []models.Product, categoryID uint, page int, hasMore bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		label := fmt.Sprintf("%s — %s", p.Name, p.Price.StringFixed(2))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callback.Encode(callback.VerbProduct, p.ID)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️",
			callback.EncodePage(callback.VerbCategory, categoryID, page-1)))
	}
	if hasMore {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️ More",
			callback.EncodePage(callback.VerbMore, categoryID, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Categories", callback.Encode(callback.VerbBack)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func productCardKeyboard(p *models.Product, page int, admin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Add to cart", callback.Encode(callback.VerbAddToCart, p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⚡ Buy now", callback.Encode(callback.VerbDirectBuy, p.ID)),
		),
	}
	if admin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", callback.Encode(callback.VerbEditProduct, p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", callback.Encode(callback.VerbDeleteProduct, p.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back",
			callback.EncodePage(callback.VerbCategory, p.CategoryID, page)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func cartKeyboard(lines []models.CartLine) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range lines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", callback.Encode(callback.VerbCartMinus, l.ID)),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s ×%d", l.Product.Name, l.Quantity),
				callback.Encode(callback.VerbCart)),
			tgbotapi.NewInlineKeyboardButtonData("➕", callback.Encode(callback.VerbCartPlus, l.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callback.Encode(callback.VerbCartRemove, l.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Checkout", callback.Encode(callback.VerbCartCheckout)),
			tgbotapi.NewInlineKeyboardButtonData("🧹 Clear", callback.Encode(callback.VerbCartClear)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍 Catalog", callback.Encode(callback.VerbCatalog)),
		),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func selectCategoryKeyboard(categories []models.Category) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, callback.Encode(callback.VerbSelectCategory, c.ID)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func confirmOrderKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", callback.Encode(callback.VerbConfirmOrder)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", callback.Encode(callback.VerbCancelOrder)),
		),
	)
	return &kb
}

func adminKeyboard(user *models.User) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📦 Orders", callback.Encode(callback.VerbAdminOrders)),
	))
	if user.IsAdmin() {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➕ Product", callback.Encode(callback.VerbAddProduct)),
				tgbotapi.NewInlineKeyboardButtonData("➕ Category", callback.Encode(callback.VerbAddCategory)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Categories", callback.Encode(callback.VerbAdminCategories)),
			),
		)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", callback.Encode(callback.VerbHome)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func adminCategoriesKeyboard(categories []models.Category) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ "+c.Name, callback.Encode(callback.VerbEditCategory, c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callback.Encode(callback.VerbDeleteCategory, c.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", callback.Encode(callback.VerbAdmin)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func ordersListKeyboard(orderList []models.Order) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orderList {
		label := fmt.Sprintf("#%d · %s · %s", o.ID, o.Status, o.Total().StringFixed(2))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callback.Encode(callback.VerbOrderDetails, o.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", callback.Encode(callback.VerbHome)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// orderActionsKeyboard offers the transitions legal from the order's
// current status, staff only.
func orderActionsKeyboard(o *models.Order, staff bool) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if staff {
		switch o.Status {
		case models.OrderStatusNew:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("▶️ Accept", callback.Encode(callback.VerbAcceptOrder, o.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel", callback.Encode(callback.VerbAdminCancelOrder, o.ID)),
			))
		case models.OrderStatusProcessing:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Complete", callback.Encode(callback.VerbCompleteOrder, o.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🚫 Cancel", callback.Encode(callback.VerbAdminCancelOrder, o.ID)),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", callback.Encode(callback.VerbHome)),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

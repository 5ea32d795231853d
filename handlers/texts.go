package handlers

// User-visible message texts.
const (
	textInternalError = "❌ Something went wrong. Please try again."
	textCommitError   = "❌ Could not finish the operation. Please start over."
	textUnhandled     = "Please use the menu buttons 👇"
	textDenied        = "⛔ You are not allowed to do that."
	textCancelled     = "Action cancelled."
	textNothingCancel = "Nothing to cancel."
	textStaleButton   = "This button is no longer valid."
	textEntityGone    = "⚠️ This item no longer exists. Starting over."
	textEmptyCatalog  = "The catalog is empty for now."
	textEmptyCart     = "🛒 Your cart is empty."
	textNotANumber    = "Please send a number."
	textOutOfStock    = "😔 Not enough stock for that."

	// Reply-keyboard menu labels. The menu handler matches these
	// verbatim; mid-wizard they are treated as wizard input.
	labelCatalog = "🛍 Catalog"
	labelCart    = "🛒 Cart"
	labelOrders  = "📦 My orders"
	labelAdmin   = "⚙️ Admin"

	// skipToken lets the user skip an optional wizard field.
	skipToken = "-"
)

// Package callback encodes and decodes the compact action tokens carried
// on inline keyboard buttons. The grammar is "verb", "verb:id" or
// "verb:id:page"; the verb set is closed, so dispatch is an exhaustive
// switch and no verb can prefix-shadow another.
package callback

import (
	"fmt"
	"strconv"
	"strings"
)

type Verb string

const (
	// Catalog browsing.
	VerbCatalog        Verb = "catalog"
	VerbCategory       Verb = "category"
	VerbSelectCategory Verb = "select_category"
	VerbProduct        Verb = "product"
	VerbMore           Verb = "more"
	VerbBack           Verb = "back"
	VerbHome           Verb = "home"

	// Cart.
	VerbCart         Verb = "cart"
	VerbCartPlus     Verb = "cart_plus"
	VerbCartMinus    Verb = "cart_minus"
	VerbCartRemove   Verb = "cart_remove"
	VerbCartClear    Verb = "cart_clear"
	VerbCartCheckout Verb = "cart_checkout"
	VerbAddToCart    Verb = "add_to_cart"
	VerbDirectBuy    Verb = "direct_buy"

	// Checkout confirmation.
	VerbConfirmOrder Verb = "confirm_order"
	VerbCancelOrder  Verb = "cancel_order"

	// Orders.
	VerbOrderDetails     Verb = "order_details"
	VerbAcceptOrder      Verb = "accept_order"
	VerbCompleteOrder    Verb = "complete_order"
	VerbAdminCancelOrder Verb = "admin_cancel_order"

	// Admin panel.
	VerbAdmin           Verb = "admin"
	VerbAdminOrders     Verb = "admin_orders"
	VerbAdminCategories Verb = "admin_categories"
	VerbAddProduct      Verb = "add_product"
	VerbAddCategory     Verb = "add_category"
	VerbEditProduct     Verb = "edit_product"
	VerbDeleteProduct   Verb = "delete_product"
	VerbEditCategory    Verb = "edit_category"
	VerbDeleteCategory  Verb = "delete_category"
)

var verbs = map[Verb]bool{
	VerbCatalog:          true,
	VerbCategory:         true,
	VerbProduct:          true,
	VerbSelectCategory:   true,
	VerbMore:             true,
	VerbBack:             true,
	VerbHome:             true,
	VerbCart:             true,
	VerbCartPlus:         true,
	VerbCartMinus:        true,
	VerbCartRemove:       true,
	VerbCartClear:        true,
	VerbCartCheckout:     true,
	VerbAddToCart:        true,
	VerbDirectBuy:        true,
	VerbConfirmOrder:     true,
	VerbCancelOrder:      true,
	VerbOrderDetails:     true,
	VerbAcceptOrder:      true,
	VerbCompleteOrder:    true,
	VerbAdminCancelOrder: true,
	VerbAdmin:            true,
	VerbAdminOrders:      true,
	VerbAdminCategories:  true,
	VerbAddProduct:       true,
	VerbAddCategory:      true,
	VerbEditProduct:      true,
	VerbDeleteProduct:    true,
	VerbEditCategory:     true,
	VerbDeleteCategory:   true,
}

// Callback is a decoded token. ID and Page are zero when the token did
// not carry them.
type Callback struct {
	Verb Verb
	ID   uint
	Page int
}

// DecodeError reports a token the codec rejects. It is a normal error
// value: a stale or hostile callback never panics the update loop.
type DecodeError struct {
	Token  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bad callback token %q: %s", e.Token, e.Reason)
}

// Encode builds a token from a verb and optional id and page arguments.
func Encode(verb Verb, args ...uint) string {
	parts := []string{string(verb)}
	for _, a := range args {
		parts = append(parts, strconv.FormatUint(uint64(a), 10))
	}
	return strings.Join(parts, ":")
}

// EncodePage builds a "verb:id:page" token.
func EncodePage(verb Verb, id uint, page int) string {
	return string(verb) + ":" + strconv.FormatUint(uint64(id), 10) + ":" + strconv.Itoa(page)
}

// Decode parses a token. The verb segment must match the closed set
// exactly; id and page segments must be integers.
func Decode(token string) (Callback, error) {
	parts := strings.Split(token, ":")
	verb := Verb(parts[0])
	if !verbs[verb] {
		return Callback{}, &DecodeError{Token: token, Reason: "unknown verb"}
	}
	cb := Callback{Verb: verb}

	if len(parts) > 1 {
		id, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return Callback{}, &DecodeError{Token: token, Reason: "id is not an integer"}
		}
		cb.ID = uint(id)
	}
	if len(parts) > 2 {
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return Callback{}, &DecodeError{Token: token, Reason: "page is not an integer"}
		}
		if page < 0 {
			return Callback{}, &DecodeError{Token: token, Reason: "page is negative"}
		}
		cb.Page = page
	}
	if len(parts) > 3 {
		return Callback{}, &DecodeError{Token: token, Reason: "too many segments"}
	}
	return cb, nil
}

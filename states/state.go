// Package states models the per-user conversation state machine. A state
// is a tagged variant (kind plus optional entity id) decoded once at the
// boundary; handlers never parse state strings themselves.
package states

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindNormal Kind = "normal"

	KindAddingProductName        Kind = "adding_product_name"
	KindAddingProductPrice       Kind = "adding_product_price"
	KindAddingProductStock       Kind = "adding_product_stock"
	KindAddingProductCategory    Kind = "adding_product_category"
	KindAddingProductDescription Kind = "adding_product_description"
	KindAddingProductImage       Kind = "adding_product_image"

	KindAddingCategoryName        Kind = "adding_category_name"
	KindAddingCategoryDescription Kind = "adding_category_description"

	KindEditingProduct  Kind = "editing_product"
	KindEditingCategory Kind = "editing_category"

	KindWaitingForPhone   Kind = "waiting_for_phone"
	KindWaitingForAddress Kind = "waiting_for_address"
	KindWaitingForComment Kind = "waiting_for_comment"
	KindConfirmingOrder   Kind = "confirming_order"
)

// parameterized lists the kinds that carry an entity id.
var parameterized = map[Kind]bool{
	KindEditingProduct:  true,
	KindEditingCategory: true,
}

var known = map[Kind]bool{
	KindNormal:                    true,
	KindAddingProductName:         true,
	KindAddingProductPrice:        true,
	KindAddingProductStock:        true,
	KindAddingProductCategory:     true,
	KindAddingProductDescription:  true,
	KindAddingProductImage:        true,
	KindAddingCategoryName:        true,
	KindAddingCategoryDescription: true,
	KindEditingProduct:            true,
	KindEditingCategory:           true,
	KindWaitingForPhone:           true,
	KindWaitingForAddress:         true,
	KindWaitingForComment:         true,
	KindConfirmingOrder:           true,
}

// State is the decoded conversation state of one user.
type State struct {
	Kind     Kind
	EntityID uint
}

func Normal() State {
	return State{Kind: KindNormal}
}

func (s State) IsNormal() bool {
	return s.Kind == KindNormal
}

// IsWizard reports whether a wizard step owns the next inbound event.
func (s State) IsWizard() bool {
	return !s.IsNormal()
}

// Encode renders the state for the users.state column: "kind" or
// "kind:id" for parameterized kinds.
func (s State) Encode() string {
	if parameterized[s.Kind] {
		return string(s.Kind) + ":" + strconv.FormatUint(uint64(s.EntityID), 10)
	}
	return string(s.Kind)
}

func (s State) String() string {
	return s.Encode()
}

// ParseError reports a state string that does not decode.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad state %q: %s", e.Value, e.Reason)
}

// Decode parses a persisted state string. Unknown kinds and malformed ids
// are rejected with *ParseError.
func Decode(raw string) (State, error) {
	if raw == "" {
		return Normal(), nil
	}
	kindPart, idPart, hasID := strings.Cut(raw, ":")
	kind := Kind(kindPart)
	if !known[kind] {
		return Normal(), &ParseError{Value: raw, Reason: "unknown kind"}
	}
	if parameterized[kind] != hasID {
		return Normal(), &ParseError{Value: raw, Reason: "entity id mismatch"}
	}
	st := State{Kind: kind}
	if hasID {
		id, err := strconv.ParseUint(idPart, 10, 32)
		if err != nil || id == 0 {
			return Normal(), &ParseError{Value: raw, Reason: "bad entity id"}
		}
		st.EntityID = uint(id)
	}
	return st, nil
}

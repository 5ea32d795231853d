package states

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Drafts are the scratch payloads accumulated across wizard steps. They
// are persisted as JSONB on the user row on every step, so an in-flight
// wizard survives a process restart.

type ProductDraft struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  uint            `json:"category_id"`
	Description string          `json:"description"`
	ImageFileID string          `json:"image_file_id"`
}

type CategoryDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EditDraft tracks an edit-wizard session: which field is being edited,
// empty while the numbered field menu is showing.
type EditDraft struct {
	Field string `json:"field"`
}

// CheckoutDraft collects checkout input. ProductID is zero for a cart
// checkout and set for a direct single-product purchase.
type CheckoutDraft struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Comment   string `json:"comment"`
}

// MarshalDraft encodes a draft for the scratch column.
func MarshalDraft(draft interface{}) (datatypes.JSON, error) {
	if draft == nil {
		return nil, nil
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// UnmarshalDraft decodes the scratch column into the given draft.
func UnmarshalDraft(scratch datatypes.JSON, draft interface{}) error {
	return json.Unmarshal([]byte(scratch), draft)
}

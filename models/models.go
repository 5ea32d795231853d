package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Order statuses.
const (
	OrderStatusNew        = "NEW"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// StateNormal is the terminal conversation state: no wizard active.
const StateNormal = "normal"

var (
	ErrEmptyName     = errors.New("name must not be empty")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrNegativeStock = errors.New("stock must not be negative")
	ErrBadQuantity   = errors.New("quantity must be positive")
)

// User is a Telegram account known to the bot. The primary key is the
// Telegram chat id. State holds the encoded conversation state and Scratch
// the in-flight wizard draft; both are cleared together when a wizard ends.
type User struct {
	ID        int64          `gorm:"primaryKey"`
	Username  string         `gorm:"size:255"`
	Role      string         `gorm:"size:20;default:'user';index"`
	State     string         `gorm:"size:64;default:'normal'"`
	Scratch   datatypes.JSON `gorm:"type:jsonb"`
	Phone     string         `gorm:"size:20"`
	Address   string         `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStaff reports whether the user may manage orders.
func (u *User) IsStaff() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}

// IsAdmin reports whether the user may manage the catalog.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	ImageFileID string          `gorm:"size:255"`
	CategoryID  uint            `gorm:"index"`
	Category    Category        `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// InStock reports whether qty more units can still be sold.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && qty <= p.Stock
}

type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;uniqueIndex;not null"`
	Slug        string `gorm:"size:255;uniqueIndex"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// BeforeSave keeps the slug derived from the current name, so a rename
// regenerates it.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Slug = Slugify(c.Name)
	return nil
}

// Slugify lowercases the name and collapses every non-alphanumeric run
// into a single dash.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CartLine is one product in a user's cart. The (user, product) pair is
// unique: repeat adds increment Quantity instead of creating a new line.
type CartLine struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    int64   `gorm:"index;uniqueIndex:idx_cart_user_product;not null"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_user_product;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Quantity  int     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal is unit price times quantity at the product's current price.
func (l *CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is immutable after creation except for Status, Comment and
// UpdatedAt. Item prices are snapshots taken at creation time.
type Order struct {
	ID        uint   `gorm:"primaryKey"`
	Number    string `gorm:"size:36;uniqueIndex"`
	UserID    int64  `gorm:"index;not null"`
	Phone     string `gorm:"size:20"`
	Address   string `gorm:"size:512"`
	Comment   string `gorm:"type:text"`
	Status    string `gorm:"size:20;default:'NEW';index"`
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the order accepts no further transition.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// Total sums the snapshot subtotals of all items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uint            `gorm:"index;not null"`
	ProductID   uint            `gorm:"not null"`
	ProductName string          `gorm:"size:255"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

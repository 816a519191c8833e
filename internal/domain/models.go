package domain

type Item struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Price       int64  `db:"price"` // JPY, tax-exclusive
	Published   bool   `db:"published"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type Stock struct {
	ItemID   string `db:"item_id"`
	Quantity int    `db:"quantity"`
}

// CartLine is one (user, item, quantity) working-set entry. Unique per
// (user_id, item_id); quantity >= 1 is enforced by the schema.
type CartLine struct {
	UserID   string `db:"user_id"`
	ItemID   string `db:"item_id"`
	Quantity int    `db:"quantity"`
}

type Address struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	PostalCode string `db:"postal_code"`
	Address    string `db:"address"`
	Name       string `db:"name"`
	Phone      string `db:"phone"`
	CreatedAt  string `db:"created_at"`
}

type Order struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	AddressID  string `db:"address_id"`
	TotalPrice int64  `db:"total_price"`
	CreatedAt  string `db:"created_at"`
}

type OrderItem struct {
	OrderID       string `db:"order_id"`
	ItemID        string `db:"item_id"`
	Quantity      int    `db:"quantity"`
	UnitPrice     int64  `db:"unit_price"`
	SubtotalPrice int64  `db:"subtotal_price"`
}

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// PaymentRecord ties an external checkout session to the order it
// produced. OrderID stays NULL until the commit transaction succeeds.
type PaymentRecord struct {
	ID         string  `db:"id"`
	SessionRef string  `db:"session_ref"`
	UserID     string  `db:"user_id"`
	AddressID  string  `db:"address_id"`
	OrderID    *string `db:"order_id"`
	Status     string  `db:"status"`
	CreatedAt  string  `db:"created_at"`
	UpdatedAt  string  `db:"updated_at"`
}

// TaxedPrice applies the configured consumption-tax percentage to a
// tax-exclusive unit price, truncating toward zero. The same function is
// used for cart display and order commit so the two totals always agree.
func TaxedPrice(price int64, pct int) int64 {
	return price * int64(100+pct) / 100
}

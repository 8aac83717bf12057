package model

import "github.com/shopspring/decimal"

// DefaultLocationStatus is the location_status of a customer whose
// coordinates were never captured on the device.
const DefaultLocationStatus = "Not Updated"

// LocationUpdated is written by UpdateCustomerLocation.
const LocationUpdated = "Updated"

// DefaultItemType is the category assigned to items added without one.
const DefaultItemType = "General"

// Customer is keyed by its natural key EntityID, which is issued by the
// backend (or by AddCustomer as max+1) and never generated by SQLite.
type Customer struct {
	EntityID       int64       `json:"entity_id"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone"`
	LastSeen       string      `json:"last_seen"`
	Visited        VisitStatus `json:"visited"`
	Latitude       *float64    `json:"latitude"`
	Longitude      *float64    `json:"longitude"`
	LocationStatus string      `json:"location_status"`
}

// NewCustomer is the input of AddCustomer.
type NewCustomer struct {
	Name     string      `json:"name" validate:"required"`
	Phone    string      `json:"phone"`
	LastSeen string      `json:"last_seen"`
	Visited  VisitStatus `json:"visited" validate:"omitempty,visit"`
}

// RemoteCustomer is one customer record as delivered by the backend.
type RemoteCustomer struct {
	EntityID int64  `json:"entity_id" validate:"gt=0"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	LastSeen string `json:"last_seen"`
}

type Item struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type"`
	Image string          `json:"image"`
	Stock int64           `json:"stock"`
}

// NewItem is the input of AddItem. Stock defaults to 0 and Type to DefaultItemType.
type NewItem struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gt=0"`
	Type  string          `json:"type"`
	Image string          `json:"image"`
	Stock *int64          `json:"stock" validate:"omitempty,min=0"`
}

// OrderBooking is an order header. It is never modified after creation.
type OrderBooking struct {
	BookingID   string `json:"booking_id"`
	OrderDate   string `json:"order_date"`
	CustomerID  int64  `json:"customer_id"`
	OrderNo     string `json:"order_no"`
	CreatedByID string `json:"created_by_id"`
	CreatedDate string `json:"created_date"`
}

// NewOrderBooking is the input of AddOrderBooking.
//
// CustomerName is the snapshot written to the activity log when no row
// exists yet for today; when empty the customer's stored name is used.
type NewOrderBooking struct {
	OrderDate    string `json:"order_date" yaml:"order_date"`
	CustomerID   int64  `json:"customer_id" yaml:"customer_id" validate:"gt=0"`
	CustomerName string `json:"customer_name" yaml:"customer_name"`
	OrderNo      string `json:"order_no" yaml:"order_no" validate:"required"`
	CreatedByID  string `json:"created_by_id" yaml:"created_by_id"`
}

type OrderBookingLine struct {
	LineID    string          `json:"line_id"`
	BookingID string          `json:"booking_id"`
	ItemID    string          `json:"item_id"`
	OrderQty  int64           `json:"order_qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

// NewOrderBookingLine is the input of AddOrderBookingLine.
// Amount is stored as given; callers keep it equal to OrderQty × UnitPrice.
type NewOrderBookingLine struct {
	BookingID string          `json:"booking_id" validate:"required"`
	ItemID    string          `json:"item_id" validate:"required"`
	OrderQty  int64           `json:"order_qty" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
}

// LineUpdate changes the quantity and amount of an existing line.
type LineUpdate struct {
	OrderQty int64           `json:"order_qty" validate:"gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"gte=0"`
}

// LineDetails replaces every mutable column of an existing line.
type LineDetails struct {
	LineID    string          `json:"line_id" validate:"required"`
	ItemID    string          `json:"item_id" validate:"required"`
	OrderQty  int64           `json:"order_qty" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
}

// OrderLine is one line of an OrderSubmission. Its amount is computed, not supplied.
type OrderLine struct {
	ItemID    string          `json:"item_id" yaml:"item_id" validate:"required"`
	OrderQty  int64           `json:"order_qty" yaml:"order_qty" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price" validate:"gte=0"`
}

// Amount returns OrderQty × UnitPrice.
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.OrderQty))
}

// OrderSubmission is a complete order: header plus every line.
type OrderSubmission struct {
	Booking NewOrderBooking `json:"booking" yaml:"booking"`
	Lines   []OrderLine     `json:"lines" yaml:"lines" validate:"min=1,dive"`
}

// SubmittedOrder is the result of SubmitOrder.
type SubmittedOrder struct {
	BookingID   string          `json:"booking_id"`
	LineIDs     []string        `json:"line_ids"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderSummary is one row of the order list.
type OrderSummary struct {
	BookingID    string          `json:"booking_id"`
	OrderNo      string          `json:"order_no"`
	OrderDate    string          `json:"order_date"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedDate  string          `json:"created_date"`
}

// OrderLineDetail is a line joined with its item name.
type OrderLineDetail struct {
	LineID    string          `json:"line_id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	OrderQty  int64           `json:"order_qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

type OrderDetails struct {
	Booking      OrderBooking      `json:"booking"`
	CustomerName string            `json:"customer_name"`
	Lines        []OrderLineDetail `json:"lines"`
}

// ActivityLog records whether a customer was visited on Date (YYYY-MM-DD).
// At most one row exists per (CustomerID, Date).
type ActivityLog struct {
	ID           string      `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	Date         string      `json:"date"`
	Status       VisitStatus `json:"status"`
}

// AppSettings is the singleton row used to detect day changes.
type AppSettings struct {
	ID            int    `json:"id"`
	LastResetDate string `json:"last_reset_date"`
}

type CustomerReceipt struct {
	ID           string          `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	CashBankID   string          `json:"cash_bank_id"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
	Attachment   string          `json:"attachment"`
	CreatedAt    string          `json:"created_at"`
}

type NewCustomerReceipt struct {
	CustomerID int64           `json:"customer_id" validate:"gt=0"`
	CashBankID string          `json:"cash_bank_id"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	Note       string          `json:"note"`
	Attachment string          `json:"attachment"`
}

// AppConfig holds the remote connection parameters delivered by QR provisioning.
// Payload keeps the raw provisioning document.
type AppConfig struct {
	BaseURL    string `json:"base_url" validate:"required,url"`
	SyncURL    string `json:"sync_url" validate:"required,url"`
	CompanyID  int64  `json:"company_id" validate:"gt=0"`
	SigningKey string `json:"signing_key"`
	DeviceName string `json:"device_name"`
	Payload    string `json:"payload,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// RecentActivity is one entry of the completed-booking feed. It is derived
// data and can be rebuilt from bookings, lines and customers.
type RecentActivity struct {
	ID           string          `json:"id"`
	BookingID    string          `json:"booking_id"`
	CustomerName string          `json:"customer_name"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ActivityDate string          `json:"activity_date"`
}

// SalesTotal is the sum of line amounts created between From and To (inclusive dates).
type SalesTotal struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Lines  int             `json:"lines"`
	Orders int             `json:"orders"`
}

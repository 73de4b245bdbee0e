package entity

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentOnline
}

// FulfillmentDetails is the pickup form. Dates are "YYYY-MM-DD", times "HH:MM".
type FulfillmentDetails struct {
	PickupDate    string        `json:"pickupDate"`
	PickupTime    string        `json:"pickupTime"`
	ContactNumber string        `json:"contactNumber"`
	Notes         string        `json:"notes"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Complete reports whether every field required for checkout is filled in.
func (d FulfillmentDetails) Complete() bool {
	return d.PickupDate != "" && d.PickupTime != "" && d.ContactNumber != ""
}

// Order is the snapshot submitted to the backend for one checkout attempt.
type Order struct {
	Items           []CartItem
	UserID          string
	ContactNumber   string
	Notes           string
	PaymentMethod   PaymentMethod
	PaymentIntentID *string
	TotalAmount     decimal.Decimal
	PickupDate      string
	PickupTime      string
}

type PaymentSessionStatus string

const (
	PaymentSessionReady     PaymentSessionStatus = "ready"
	PaymentSessionPresented PaymentSessionStatus = "presented"
	PaymentSessionSucceeded PaymentSessionStatus = "succeeded"
	PaymentSessionFailed    PaymentSessionStatus = "failed"
)

// PaymentSession is the handshake state for one online payment.
type PaymentSession struct {
	AmountCents  int64
	CustomerID   string
	ClientSecret string
	EphemeralKey string
	Status       PaymentSessionStatus
}

// OrderItem is a line of a past order. Fields are whatever the backend kept,
// so prices and quantities may be missing.
type OrderItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       Price  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type,omitempty"`
}

// OrderDoc is a past order normalized for display.
type OrderDoc struct {
	ID            string      `json:"id"`
	Status        string      `json:"status,omitempty"`
	TotalAmount   *float64    `json:"totalAmount,omitempty"`
	CreatedAt     Timestamp   `json:"createdAt"`
	Items         []OrderItem `json:"items"`
	PickupDate    string      `json:"pickupDate,omitempty"`
	PickupTime    string      `json:"pickupTime,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
}

package entity

// PaymentSheetRequest asks the backend to open a payment session. Amount is in
// minor units.
type PaymentSheetRequest struct {
	Amount     int64  `json:"amount"`
	Email      string `json:"email,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
}

// PaymentSheet is the backend's answer. A non-empty Error means the backend
// refused to open the session; the other fields are then meaningless.
type PaymentSheet struct {
	PaymentIntent  string `json:"paymentIntent"`
	EphemeralKey   string `json:"ephemeralKey"`
	Customer       string `json:"customer"`
	PublishableKey string `json:"publishableKey,omitempty"`
	Error          string `json:"error,omitempty"`
}

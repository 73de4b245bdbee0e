package httpx

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/menu"
	"github.com/jcmexdev/storefront/internal/payment"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

type MenuResponse struct {
	Sections []menu.Section `json:"sections"`
}

type WeeklyPlanResponse struct {
	Days []menu.DayOffer `json:"days"`
}

type CartResponse struct {
	Items       []entity.CartItem `json:"items"`
	ItemCount   int               `json:"itemCount"`
	TotalAmount json.Number       `json:"totalAmount"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type DetailsResponse struct {
	Details     entity.FulfillmentDetails `json:"details"`
	CanCheckout bool                      `json:"canCheckout"`
}

type CheckoutStatusResponse struct {
	State      checkout.State   `json:"state"`
	Processing bool             `json:"processing"`
	AttemptID  string           `json:"attemptId,omitempty"`
	Prompt     *payment.Prompt  `json:"prompt,omitempty"`
	Receipt    *ReceiptResponse `json:"receipt,omitempty"`
	Error      *ErrorResponse   `json:"error,omitempty"`
}

// ReceiptResponse backs the confirmation screen.
type ReceiptResponse struct {
	OrderID       string               `json:"orderId,omitempty"`
	AttemptID     string               `json:"attemptId"`
	Amount        json.Number          `json:"amount"`
	PickupDate    string               `json:"pickupDate"`
	PickupTime    string               `json:"pickupTime"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
}

type CashConfirmationRequest struct {
	Confirmed bool `json:"confirmed"`
}

type OrderResponse struct {
	ID            string             `json:"id"`
	Status        string             `json:"status,omitempty"`
	TotalAmount   *float64           `json:"totalAmount,omitempty"`
	CreatedAt     entity.Timestamp   `json:"createdAt"`
	CreatedDate   string             `json:"createdDate"`
	CreatedTime   string             `json:"createdTime"`
	Items         []entity.OrderItem `json:"items"`
	PickupDate    string             `json:"pickupDate,omitempty"`
	PickupTime    string             `json:"pickupTime,omitempty"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
}

type HistoryError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type HistoryResponse struct {
	Orders []OrderResponse `json:"orders"`
	Error  *HistoryError   `json:"error,omitempty"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func mapReceipt(r *checkout.Receipt) *ReceiptResponse {
	if r == nil {
		return nil
	}
	return &ReceiptResponse{
		OrderID:       r.OrderID,
		AttemptID:     r.AttemptID,
		Amount:        money(r.Amount),
		PickupDate:    r.PickupDate,
		PickupTime:    r.PickupTime,
		PaymentMethod: r.PaymentMethod,
	}
}

func mapOrder(doc entity.OrderDoc) OrderResponse {
	return OrderResponse{
		ID:            doc.ID,
		Status:        doc.Status,
		TotalAmount:   doc.TotalAmount,
		CreatedAt:     doc.CreatedAt,
		CreatedDate:   doc.CreatedAt.DateOnly(),
		CreatedTime:   doc.CreatedAt.TimeOnly(),
		Items:         doc.Items,
		PickupDate:    doc.PickupDate,
		PickupTime:    doc.PickupTime,
		PaymentMethod: doc.PaymentMethod,
	}
}

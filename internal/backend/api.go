package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// placeOrderRequest is the body of POST /orders/place. paymentIntentId is
// always present and null for cash orders.
type placeOrderRequest struct {
	Items           []entity.CartItem    `json:"items"`
	UserID          string               `json:"userId"`
	ContactNumber   string               `json:"contactNumber"`
	Notes           string               `json:"notes"`
	PaymentMethod   entity.PaymentMethod `json:"paymentMethod"`
	PaymentIntentID *string              `json:"paymentIntentId"`
	TotalAmount     json.Number          `json:"totalAmount"`
	PickupDate      string               `json:"pickupDate"`
	PickupTime      string               `json:"pickupTime"`
}

type placeOrderAck struct {
	ID      json.RawMessage `json:"id"`
	OrderID json.RawMessage `json:"orderId"`
}

func (c *Client) FetchMenu(ctx context.Context) ([]entity.MenuItem, error) {
	const op = "fetch menu"
	resp, err := c.get(ctx, op, "/menu/all")
	if err != nil {
		return nil, err
	}
	items := []entity.MenuItem{}
	if err := decode(op, resp.body, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.MenuItem{}
	}
	return items, nil
}

func (c *Client) FetchWeeklyPlan(ctx context.Context) (entity.WeeklyPlan, error) {
	const op = "fetch weekly plan"
	resp, err := c.get(ctx, op, "/plans/weekly")
	if err != nil {
		return nil, err
	}
	plan := entity.WeeklyPlan{}
	if err := decode(op, resp.body, &plan); err != nil {
		return nil, err
	}
	if plan == nil {
		plan = entity.WeeklyPlan{}
	}
	return plan, nil
}

// PlaceOrder submits the order and returns the backend's order id, which is
// empty when the acknowledgment carries none.
func (c *Client) PlaceOrder(ctx context.Context, order *entity.Order) (string, error) {
	const op = "place order"
	items := order.Items
	if items == nil {
		items = []entity.CartItem{}
	}
	resp, err := c.do(ctx, op, http.MethodPost, "/orders/place", placeOrderRequest{
		Items:           items,
		UserID:          order.UserID,
		ContactNumber:   order.ContactNumber,
		Notes:           order.Notes,
		PaymentMethod:   order.PaymentMethod,
		PaymentIntentID: order.PaymentIntentID,
		TotalAmount:     json.Number(order.TotalAmount.String()),
		PickupDate:      order.PickupDate,
		PickupTime:      order.PickupTime,
	})
	if err != nil {
		return "", err
	}

	var ack placeOrderAck
	if err := json.Unmarshal(resp.body, &ack); err != nil {
		return "", nil
	}
	for _, raw := range []json.RawMessage{ack.ID, ack.OrderID} {
		if id := scalar(raw); id != "" {
			return id, nil
		}
	}
	return "", nil
}

// CreatePaymentSheet opens a payment session. When the backend answers with
// an {"error": ...} body, whatever the status, the message is returned in
// PaymentSheet.Error and err is nil.
func (c *Client) CreatePaymentSheet(ctx context.Context, req entity.PaymentSheetRequest) (*entity.PaymentSheet, error) {
	const op = "create payment sheet"
	resp, err := c.do(ctx, op, http.MethodPost, "/payments/payment-sheet", req)
	if err != nil {
		var serr *ServerError
		if errors.As(err, &serr) {
			var sheet entity.PaymentSheet
			if json.Unmarshal([]byte(serr.Body), &sheet) == nil && sheet.Error != "" {
				return &entity.PaymentSheet{Error: sheet.Error}, nil
			}
		}
		return nil, err
	}

	var sheet entity.PaymentSheet
	if err := decode(op, resp.body, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// FetchHistory returns the user's past orders, newest first as the backend
// sends them. The body may be an array or an object holding "orders" or
// "items".
func (c *Client) FetchHistory(ctx context.Context, userID string) ([]entity.OrderDoc, error) {
	const op = "fetch history"
	resp, err := c.get(ctx, op, "/orders/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}

	raws, err := historyEntries(op, resp.body)
	if err != nil {
		return nil, err
	}
	docs := make([]entity.OrderDoc, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, entity.NormalizeOrderDoc(raw))
	}
	return docs, nil
}

func historyEntries(op string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := decode(op, trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Orders []json.RawMessage `json:"orders"`
		Items  []json.RawMessage `json:"items"`
	}
	if err := decode(op, trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Orders != nil {
		return wrapped.Orders, nil
	}
	return wrapped.Items, nil
}

func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UnknownOrderID is used for history entries the backend sent without an id.
const UnknownOrderID = "unknown"

// NormalizeOrderDoc maps one raw history entry onto OrderDoc. The backend has
// used several spellings for the same fields over time, so each field is read
// from the first key that carries a usable value. It never fails.
func NormalizeOrderDoc(raw json.RawMessage) OrderDoc {
	doc := OrderDoc{ID: UnknownOrderID, Items: []OrderItem{}}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return doc
	}

	if id := firstString(obj, "id", "orderId"); id != "" {
		doc.ID = id
	}
	doc.Status = firstString(obj, "status", "orderStatus")
	if n, ok := firstNumber(obj, "totalAmount", "amount"); ok {
		doc.TotalAmount = &n
	}
	for _, k := range []string{"createdAt", "created_at", "timestamp"} {
		if v, ok := obj[k]; ok {
			if t, ok := ParseTimestamp(v); ok {
				doc.CreatedAt = NewTimestamp(t)
				break
			}
		}
	}
	doc.Items = decodeOrderItems(obj["items"])
	doc.PickupDate = firstString(obj, "pickupDate")
	doc.PickupTime = firstString(obj, "pickupTime")
	doc.PaymentMethod = firstString(obj, "paymentMethod")

	return doc
}

func decodeOrderItems(raw json.RawMessage) []OrderItem {
	items := []OrderItem{}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return items
	}
	for _, e := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(e, &obj); err != nil || obj == nil {
			continue
		}
		item := OrderItem{
			ID:          firstString(obj, "id"),
			Name:        firstString(obj, "name"),
			Description: firstString(obj, "description"),
			Category:    firstString(obj, "category"),
			Image:       firstString(obj, "image"),
			Type:        firstString(obj, "type"),
		}
		if p, ok := obj["price"]; ok {
			_ = item.Price.UnmarshalJSON(p)
		}
		if q, ok := firstNumber(obj, "quantity"); ok {
			item.Quantity = int(q)
		}
		items = append(items, item)
	}
	return items
}

// firstString accepts strings and numbers, so numeric ids survive.
func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw := bytes.TrimSpace(obj[k])
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
				return n.String()
			}
		}
	}
	return ""
}

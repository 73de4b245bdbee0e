package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_UnmarshalOnlyNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		want  string
	}{
		{"integer", `12`, true, "12"},
		{"fraction", `4.99`, true, "4.99"},
		{"string", `"4.99"`, false, "0"},
		{"null", `null`, false, "0"},
		{"object", `{"amount":3}`, false, "0"},
		{"bool", `true`, false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.valid, p.Valid)
			assert.True(t, p.Value().Equal(decimal.RequireFromString(tt.want)), "got %s", p.Value())
		})
	}
}

func TestPrice_MissingFieldIsInvalid(t *testing.T) {
	var item MenuItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","name":"Dosa"}`), &item))
	assert.False(t, item.Price.Valid)

	out, err := json.Marshal(item.Price)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestamp_Shapes(t *testing.T) {
	local := func(y int, m time.Month, d, h, mi int) time.Time {
		return time.Date(y, m, d, h, mi, 0, 0, time.Local)
	}

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"seconds and nanos", `{"seconds":1700000000,"nanos":500000000}`, time.Unix(1700000000, 500000000)},
		{"firestore underscore", `{"_seconds":1700000000,"_nanoseconds":0}`, time.Unix(1700000000, 0)},
		{"java instant", `{"epochSecond":1700000000,"nano":0}`, time.Unix(1700000000, 0)},
		{"rfc3339", `"2025-03-01T10:15:00Z"`, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"zone-less iso", `"2025-03-01T10:15:00"`, local(2025, 3, 1, 10, 15)},
		{"date only", `"2025-03-01"`, local(2025, 3, 1, 0, 0)},
		{"epoch millis", `1700000000000`, time.UnixMilli(1700000000000)},
		{"array", `[2025,3,1,10,15]`, local(2025, 3, 1, 10, 15)},
		{"structured", `{"year":2025,"monthValue":3,"dayOfMonth":1,"hour":10,"minute":15}`, local(2025, 3, 1, 10, 15)},
		{"month name", `{"year":2025,"month":"MARCH","day":1,"hour":10,"minute":15}`, local(2025, 3, 1, 10, 15)},
		{"mongo date", `{"$date":"2025-03-01T10:15:00Z"}`, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			require.True(t, ts.Valid)
			assert.True(t, tt.want.Equal(ts.Time), "want %s got %s", tt.want, ts.Time)
		})
	}
}

func TestTimestamp_UnknownShapes(t *testing.T) {
	for _, raw := range []string{`null`, `"yesterday"`, `{}`, `{"foo":1}`, `[2025]`, `true`, `""`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.False(t, ts.Valid, raw)
		assert.Equal(t, UnknownTime, ts.DateOnly())
		assert.Equal(t, "", ts.TimeOnly())
		assert.Equal(t, UnknownTime, ts.String())
	}
}

func TestTimestamp_Rendering(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 12, 5, 18, 30, 0, 0, time.Local))
	assert.Equal(t, "2025-12-05", ts.DateOnly())
	assert.Equal(t, "18:30", ts.TimeOnly())
	assert.Equal(t, "2025-12-05 18:30", ts.String())
}

func TestNormalizeOrderDoc_Fallbacks(t *testing.T) {
	raw := `{
		"orderId": 42,
		"orderStatus": "PLACED",
		"amount": 18.5,
		"created_at": {"_seconds": 1700000000, "_nanoseconds": 0},
		"items": [{"id":"x","name":"Idli","price":"free","quantity":2}, "junk"],
		"pickupDate": "2025-03-01",
		"pickupTime": "12:30",
		"paymentMethod": "cash"
	}`

	doc := NormalizeOrderDoc(json.RawMessage(raw))

	assert.Equal(t, "42", doc.ID)
	assert.Equal(t, "PLACED", doc.Status)
	require.NotNil(t, doc.TotalAmount)
	assert.InDelta(t, 18.5, *doc.TotalAmount, 0.0001)
	assert.True(t, doc.CreatedAt.Valid)
	assert.True(t, time.Unix(1700000000, 0).Equal(doc.CreatedAt.Time))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Idli", doc.Items[0].Name)
	assert.False(t, doc.Items[0].Price.Valid)
	assert.Equal(t, 2, doc.Items[0].Quantity)
	assert.Equal(t, "12:30", doc.PickupTime)
}

func TestNormalizeOrderDoc_Missing(t *testing.T) {
	doc := NormalizeOrderDoc(json.RawMessage(`{"status":"DONE"}`))
	assert.Equal(t, UnknownOrderID, doc.ID)
	assert.Nil(t, doc.TotalAmount)
	assert.False(t, doc.CreatedAt.Valid)
	assert.NotNil(t, doc.Items)
	assert.Empty(t, doc.Items)

	doc = NormalizeOrderDoc(json.RawMessage(`"not an object"`))
	assert.Equal(t, UnknownOrderID, doc.ID)
}

func TestFulfillmentDetails_Complete(t *testing.T) {
	d := FulfillmentDetails{PickupDate: "2025-03-01", PickupTime: "12:00"}
	assert.False(t, d.Complete())
	d.ContactNumber = "555"
	assert.True(t, d.Complete())
	assert.True(t, PaymentOnline.Valid())
	assert.False(t, PaymentMethod("card").Valid())
}

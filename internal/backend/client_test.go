package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/", Timeout: time.Second}), srv
}

func TestFetchMenu(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/menu/all", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"1","name":"Dosa","category":"Mains","price":6.5},{"id":"2","name":"Chai","category":"Drinks","price":"n/a"}]`)
	})

	items, err := c.FetchMenu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Price.Valid)
	assert.False(t, items[1].Price.Valid)
}

func TestPlaceOrder_Body(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/place", r.URL.Path)
		assert.Equal(t, "req-42", r.Header.Get("X-Request-Id"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"orderId": 981}`)
	})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	id, err := c.PlaceOrder(ctx, &entity.Order{
		Items:         []entity.CartItem{{ID: "1", Name: "Dosa", Price: entity.NewPrice(6.5), Quantity: 2}},
		UserID:        "u1",
		ContactNumber: "555",
		PaymentMethod: entity.PaymentCash,
		TotalAmount:   decimal.RequireFromString("13.00"),
		PickupDate:    "2025-03-11",
		PickupTime:    "13:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "981", id)

	assert.Contains(t, body, "paymentIntentId")
	assert.Nil(t, body["paymentIntentId"])
	assert.Equal(t, 13.0, body["totalAmount"])
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "", body["notes"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 6.5, items[0].(map[string]any)["price"])
}

func TestPlaceOrder_NoAckID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `OK`)
	})
	id, err := c.PlaceOrder(context.Background(), &entity.Order{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPlaceOrder_ServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	})
	_, err := c.PlaceOrder(context.Background(), &entity.Order{UserID: "u1"})
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Contains(t, serr.Body, "db down")
}

func TestCreatePaymentSheet(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req entity.PaymentSheetRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1500), req.Amount)
		assert.Equal(t, "cus_1", req.CustomerID)
		_, _ = io.WriteString(w, `{"paymentIntent":"pi_secret","ephemeralKey":"ek","customer":"cus_1","publishableKey":"pk"}`)
	})

	sheet, err := c.CreatePaymentSheet(context.Background(), entity.PaymentSheetRequest{Amount: 1500, Email: "a@example.com", CustomerID: "cus_1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_secret", sheet.PaymentIntent)
	assert.Equal(t, "ek", sheet.EphemeralKey)
	assert.Empty(t, sheet.Error)
}

func TestCreatePaymentSheet_ErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"No such customer: cus_x"}`)
	})

	sheet, err := c.CreatePaymentSheet(context.Background(), entity.PaymentSheetRequest{Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "No such customer: cus_x", sheet.Error)
}

func TestFetchHistory_Shapes(t *testing.T) {
	bodies := map[string]string{
		"array":  `[{"id":"o1","totalAmount":10},{"orderId":"o2"}]`,
		"orders": `{"orders":[{"id":"o1","totalAmount":10},{"orderId":"o2"}]}`,
		"items":  `{"items":[{"id":"o1","totalAmount":10},{"orderId":"o2"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/orders/user%2F1", r.URL.EscapedPath())
				_, _ = io.WriteString(w, body)
			})
			docs, err := c.FetchHistory(context.Background(), "user/1")
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "o1", docs[0].ID)
			assert.Equal(t, "o2", docs[1].ID)
		})
	}
}

func TestFetchHistory_EmptyIsNotNil(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	docs, err := c.FetchHistory(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestFetchHistory_BadBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	_, err := c.FetchHistory(context.Background(), "u1")
	var nerr *NetworkError
	assert.True(t, errors.As(err, &nerr))
}

func TestFetchWeeklyPlan(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"Monday":{"veg":{"title":"Veg Meal","priceLabel":"$12 / meal","items":["Dal","Rice"]}}}`)
	})
	plan, err := c.FetchWeeklyPlan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, plan["Monday"].Veg)
	assert.Nil(t, plan["Monday"].NonVeg)
	assert.Equal(t, "$12 / meal", plan["Monday"].Veg.PriceLabel)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Config{BaseURL: srv.URL})

	_, err := c.FetchMenu(context.Background())
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "fetch menu", nerr.Op)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, FailureThreshold: 3, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := c.PlaceOrder(context.Background(), &entity.Order{})
		var serr *ServerError
		require.True(t, errors.As(err, &serr))
	}

	_, err := c.PlaceOrder(context.Background(), &entity.Order{})
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr), "got %v", err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, FailureThreshold: 2})

	for i := 0; i < 4; i++ {
		_, err := c.FetchMenu(context.Background())
		var serr *ServerError
		require.True(t, errors.As(err, &serr))
	}
	assert.Equal(t, int32(4), hits.Load())
}

func TestConcurrentGetsAreCollapsed(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchMenu(context.Background())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestCollapsedGetSurvivesFirstCallerCancel(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = io.WriteString(w, `[{"id":"1","name":"Dosa","price":6.5}]`)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchMenu(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		items []entity.MenuItem
		err   error
	}
	second := make(chan result, 1)
	go func() {
		items, err := c.FetchMenu(context.Background())
		second <- result{items, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.items, 1)
	assert.Equal(t, int32(1), hits.Load())
}

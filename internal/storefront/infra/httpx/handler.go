package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"
	"github.com/jcmexdev/storefront/internal/defaults"
	"github.com/jcmexdev/storefront/internal/menu"
	"github.com/jcmexdev/storefront/internal/payment"
	"github.com/jcmexdev/storefront/internal/session"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx/middlewares"
)

const historyErrorMessage = "Unable to load past orders. Pull to retry."

// Handler exposes the per-device storefront session over JSON.
type Handler struct {
	sessions *session.Registry
	catalog  ports.CatalogService
	orders   ports.OrderService
	attempts attemptlog.Repository // nil-safe: attempt lookups answer 404

	// promptWait bounds how long POST /checkout waits for the attempt to
	// either finish or ask the customer something.
	promptWait time.Duration
}

// NewHandler wires the handler. attempts may be nil.
func NewHandler(sessions *session.Registry, backend ports.Backend, attempts attemptlog.Repository) *Handler {
	return &Handler{
		sessions:   sessions,
		catalog:    backend,
		orders:     backend,
		attempts:   attempts,
		promptWait: 5 * time.Second,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetMenu returns the menu grouped by category, filtered by ?q=.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.FetchMenu(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch menu", "error", err)
		writeError(w, http.StatusBadGateway, "menu_unavailable", "Unable to load the menu. Please try again.")
		return
	}
	items = menu.Search(items, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, MenuResponse{Sections: menu.GroupByCategory(items)})
}

func (h *Handler) GetWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.catalog.FetchWeeklyPlan(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch weekly plan", "error", err)
		writeError(w, http.StatusBadGateway, "plan_unavailable", "Unable to load the weekly meal plan.")
		return
	}
	writeJSON(w, http.StatusOK, WeeklyPlanResponse{Days: menu.PlanCartItems(plan)})
}

// --- cart ---

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartResponse(h.session(r)))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var item entity.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if item.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_item", "id is required")
		return
	}

	s := h.session(r)
	s.Cart.AddItem(item)
	writeJSON(w, http.StatusOK, h.cartResponse(s))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s := h.session(r)
	s.Cart.SetQuantity(chi.URLParam(r, "id"), req.Quantity)
	writeJSON(w, http.StatusOK, h.cartResponse(s))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Cart.RemoveItem(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.cartResponse(s))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Cart.Clear()
	writeJSON(w, http.StatusOK, h.cartResponse(s))
}

// --- checkout ---

func (h *Handler) GetDetails(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	writeJSON(w, http.StatusOK, DetailsResponse{Details: s.Checkout.Details(), CanCheckout: s.Checkout.CanCheckout()})
}

func (h *Handler) PutDetails(w http.ResponseWriter, r *http.Request) {
	var d entity.FulfillmentDetails
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s := h.session(r)
	if err := s.Checkout.UpdateDetails(d); err != nil {
		status, body := checkoutError(err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, DetailsResponse{Details: s.Checkout.Details(), CanCheckout: s.Checkout.CanCheckout()})
}

type checkoutResult struct {
	receipt *checkout.Receipt
	err     error
}

// StartCheckout runs an attempt detached from the request. It answers as soon
// as the attempt finishes or asks the customer for cash confirmation or
// payment; after that the client polls GET /checkout.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if s.Checkout.Processing() {
		status, body := checkoutError(checkout.ErrInProgress)
		writeJSON(w, status, body)
		return
	}

	user := currentUser(r.Context())
	ctx := context.WithoutCancel(r.Context())
	done := make(chan checkoutResult, 1)
	go func() {
		receipt, err := s.Checkout.Checkout(ctx, user)
		done <- checkoutResult{receipt: receipt, err: err}
	}()

	timeout := time.NewTimer(h.promptWait)
	defer timeout.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case res := <-done:
			if res.err != nil {
				status, body := checkoutError(res.err)
				resp := h.checkoutStatus(s)
				resp.Error = body
				writeJSON(w, status, resp)
				return
			}
			resp := h.checkoutStatus(s)
			resp.Receipt = mapReceipt(res.receipt)
			writeJSON(w, http.StatusOK, resp)
			return
		case <-tick.C:
			if _, ok := s.Relay.Pending(); ok {
				writeJSON(w, http.StatusAccepted, h.checkoutStatus(s))
				return
			}
		case <-timeout.C:
			writeJSON(w, http.StatusAccepted, h.checkoutStatus(s))
			return
		}
	}
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.checkoutStatus(h.session(r)))
}

func (h *Handler) ConfirmCash(w http.ResponseWriter, r *http.Request) {
	var req CashConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s := h.session(r)
	if err := s.Relay.ResolveCash(req.Confirmed); err != nil {
		writeError(w, http.StatusConflict, "no_pending_prompt", "Nothing is waiting for cash confirmation.")
		return
	}
	writeJSON(w, http.StatusAccepted, h.checkoutStatus(s))
}

func (h *Handler) PaymentResult(w http.ResponseWriter, r *http.Request) {
	var req payment.PaymentResult
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s := h.session(r)
	if err := s.Relay.ResolvePayment(req); err != nil {
		writeError(w, http.StatusConflict, "no_pending_prompt", "Nothing is waiting for a payment result.")
		return
	}
	writeJSON(w, http.StatusAccepted, h.checkoutStatus(s))
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Checkout.Acknowledge()
	writeJSON(w, http.StatusOK, h.checkoutStatus(s))
}

// GetAttempt returns the latest log entry of one of the device's own
// attempts.
func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.attempts == nil || !h.session(r).Checkout.Ran(id) {
		writeError(w, http.StatusNotFound, "attempt_not_found", "")
		return
	}

	entry, err := h.attempts.GetLatest(r.Context(), id)
	if errors.Is(err, attemptlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "attempt_not_found", "")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read attempt log", "attempt_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "attempt_log_unavailable", "")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// --- orders ---

// GetOrders renders the history screen. Failures are reported inline so the
// client can offer a retry.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "auth_required", "Please sign in to see your orders.")
		return
	}

	docs, err := h.orders.FetchHistory(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch order history", "user_id", userID, "error", err)
		writeJSON(w, http.StatusBadGateway, HistoryResponse{
			Orders: []OrderResponse{},
			Error:  &HistoryError{Error: "history_unavailable", Message: historyErrorMessage, Retryable: true},
		})
		return
	}

	out := make([]OrderResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, mapOrder(d))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Orders: out})
}

// Reorder adds the lines of a past order to the cart.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "auth_required", "Please sign in to reorder.")
		return
	}

	docs, err := h.orders.FetchHistory(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch order history", "user_id", userID, "error", err)
		writeError(w, http.StatusBadGateway, "history_unavailable", historyErrorMessage)
		return
	}

	orderID := chi.URLParam(r, "id")
	for _, d := range docs {
		if d.ID == orderID {
			s := h.session(r)
			s.Cart.Reorder(d.Items)
			writeJSON(w, http.StatusOK, h.cartResponse(s))
			return
		}
	}
	writeError(w, http.StatusNotFound, "order_not_found", "")
}

// --- profile ---

func (h *Handler) GetProfileDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(r).Defaults.LoadProfile(r.Context()))
}

func (h *Handler) PutProfileDefaults(w http.ResponseWriter, r *http.Request) {
	var p defaults.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s := h.session(r)
	if err := s.Defaults.SaveProfile(r.Context(), p); err != nil {
		slog.ErrorContext(r.Context(), "failed to save defaults", "error", err)
		writeError(w, http.StatusInternalServerError, "defaults_unavailable", "Could not save your defaults.")
		return
	}
	writeJSON(w, http.StatusOK, s.Defaults.LoadProfile(r.Context()))
}

func (h *Handler) DeleteProfileDefaults(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.Defaults.ClearProfile(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "failed to clear defaults", "error", err)
		writeError(w, http.StatusInternalServerError, "defaults_unavailable", "Could not clear your defaults.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignOut forgets the device's session. Signing out of the identity provider
// is the client's job.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.Drop(middlewares.DeviceID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.sessions.Get(r.Context(), middlewares.DeviceID(r.Context()))
}

func (h *Handler) cartResponse(s *session.Session) CartResponse {
	return CartResponse{
		Items:       s.Cart.Items(),
		ItemCount:   s.Cart.TotalItemCount(),
		TotalAmount: money(s.Cart.TotalAmount()),
	}
}

func (h *Handler) checkoutStatus(s *session.Session) CheckoutStatusResponse {
	resp := CheckoutStatusResponse{
		State:      s.Checkout.State(),
		Processing: s.Checkout.Processing(),
		AttemptID:  s.Checkout.CurrentAttempt(),
	}
	if p, ok := s.Relay.Pending(); ok {
		resp.Prompt = &p
	}
	if last := s.Checkout.LastOutcome(); last.AttemptID == resp.AttemptID && last.State == resp.State {
		resp.Receipt = mapReceipt(last.Receipt)
		if last.Err != nil {
			_, resp.Error = checkoutError(last.Err)
		}
	}
	return resp
}

func currentUser(ctx context.Context) *checkout.User {
	id := middlewares.UserID(ctx)
	if id == "" {
		return nil
	}
	return &checkout.User{ID: id, Email: middlewares.UserEmail(ctx)}
}

// checkoutError maps a checkout error to a status and the customer-facing
// message.
func checkoutError(err error) (int, *ErrorResponse) {
	title, msg := checkout.UserMessage(err)
	body := &ErrorResponse{Title: title, Message: msg}

	var (
		verr *checkout.ValidationError
		perr *payment.ProviderError
		ierr *checkout.PaymentInitError
		serr *checkout.SubmitError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status, body.Error = http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, checkout.ErrAuthRequired):
		status, body.Error = http.StatusUnauthorized, "auth_required"
	case errors.Is(err, checkout.ErrInProgress):
		status, body.Error = http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, checkout.ErrCancelled):
		status, body.Error = http.StatusOK, "cancelled"
	case errors.As(err, &perr):
		status, body.Error = http.StatusPaymentRequired, "payment_failed"
	case errors.As(err, &ierr):
		status, body.Error = http.StatusBadGateway, "payment_init_failed"
	case errors.As(err, &serr):
		status, body.Error = http.StatusBadGateway, "submit_failed"
	default:
		body.Error = "internal_error"
	}
	return status, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

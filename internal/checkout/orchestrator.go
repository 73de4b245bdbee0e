// Package checkout drives one cart through pickup validation, payment and
// order submission.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"
	"github.com/jcmexdev/storefront/internal/defaults"
	"github.com/jcmexdev/storefront/internal/payment"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

const tracerName = "github.com/jcmexdev/storefront/internal/checkout"

// recentAttempts is how many attempt ids Ran remembers.
const recentAttempts = 50

// Cart is the part of the cart store the orchestrator reads and clears.
type Cart interface {
	Items() []entity.CartItem
	Len() int
	TotalItemCount() int
	TotalAmount() decimal.Decimal
	Clear()
}

// Defaults is the persisted-defaults view. Reads never fail; a missing or
// unreadable value is reported as not found.
type Defaults interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string)
}

// Backend is the remote API used during an attempt.
type Backend interface {
	CreatePaymentSheet(ctx context.Context, req entity.PaymentSheetRequest) (*entity.PaymentSheet, error)
	PlaceOrder(ctx context.Context, order *entity.Order) (string, error)
}

// CashConfirmer asks the customer to confirm a cash order.
type CashConfirmer interface {
	ConfirmCash(ctx context.Context, summary payment.CashSummary) (bool, error)
}

// User is the signed-in identity placing the order.
type User struct {
	ID    string
	Email string
}

// Receipt describes a placed order.
type Receipt struct {
	OrderID       string               `json:"orderId,omitempty"`
	AttemptID     string               `json:"attemptId"`
	Amount        decimal.Decimal      `json:"amount"`
	PickupDate    string               `json:"pickupDate"`
	PickupTime    string               `json:"pickupTime"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
}

// Outcome is the result of the most recent attempt.
type Outcome struct {
	AttemptID string
	State     State
	Receipt   *Receipt
	Err       error
}

type Config struct {
	Cart     Cart
	Defaults Defaults
	Backend  Backend
	Payments payment.Provider
	Cash     CashConfirmer
	// AttemptLog may be nil.
	AttemptLog attemptlog.Repository
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Orchestrator owns the fulfillment details of one session and runs at most
// one checkout attempt at a time.
type Orchestrator struct {
	cart     Cart
	defaults Defaults
	log      attemptlog.Repository
	clock    func() time.Time
	tracer   trace.Tracer

	cashSteps   []step
	onlineSteps []step

	processing atomic.Bool

	mu        sync.Mutex
	state     State
	details   entity.FulfillmentDetails
	attemptID string
	ran       []string // recent attempt ids, oldest first
	last      Outcome
}

func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	submit := &submitOrderStep{backend: cfg.Backend}

	return &Orchestrator{
		cart:     cfg.Cart,
		defaults: cfg.Defaults,
		log:      cfg.AttemptLog,
		clock:    clock,
		tracer:   otel.Tracer(tracerName),
		cashSteps: []step{
			&cashConfirmationStep{confirmer: cfg.Cash},
			submit,
		},
		onlineSteps: []step{
			&paymentSessionStep{backend: cfg.Backend, defaults: cfg.Defaults, provider: cfg.Payments},
			submit,
		},
		state:   StateIdle,
		details: entity.FulfillmentDetails{PaymentMethod: entity.PaymentCash},
	}
}

// LoadDefaults copies the saved contact number and notes into fields the
// customer has not filled in.
func (o *Orchestrator) LoadDefaults(ctx context.Context) {
	contact, hasContact := o.defaults.Get(ctx, defaults.KeyContactNumber)
	notes, hasNotes := o.defaults.Get(ctx, defaults.KeyNotes)

	o.mu.Lock()
	defer o.mu.Unlock()
	if hasContact && o.details.ContactNumber == "" {
		o.details.ContactNumber = contact
	}
	if hasNotes && o.details.Notes == "" {
		o.details.Notes = notes
	}
}

func (o *Orchestrator) Details() entity.FulfillmentDetails {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.details
}

// UpdateDetails replaces the form. An empty payment method means cash.
func (o *Orchestrator) UpdateDetails(d entity.FulfillmentDetails) error {
	if o.processing.Load() {
		return ErrInProgress
	}
	if d.PaymentMethod == "" {
		d.PaymentMethod = entity.PaymentCash
	}
	if !d.PaymentMethod.Valid() {
		return &ValidationError{Title: "Invalid Payment Method", Message: "Please choose cash or online payment."}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.details = d
	return nil
}

func (o *Orchestrator) CanCheckout() bool {
	return o.Details().Complete() && !o.processing.Load() && o.cart.Len() > 0
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Processing() bool {
	return o.processing.Load()
}

// CurrentAttempt is the id of the running attempt, or of the last one once it
// has finished. Empty before the first attempt.
func (o *Orchestrator) CurrentAttempt() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attemptID
}

// Ran reports whether id is one of this orchestrator's recent attempts.
func (o *Orchestrator) Ran(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range o.ran {
		if r == id {
			return true
		}
	}
	return false
}

func (o *Orchestrator) LastOutcome() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Acknowledge returns a finished attempt to Idle.
func (o *Orchestrator) Acknowledge() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Terminal() {
		o.state = StateIdle
	}
}

// Checkout runs one attempt. Once the details are valid the attempt is no
// longer bound to ctx's cancellation and always runs to a final state.
func (o *Orchestrator) Checkout(ctx context.Context, user *User) (*Receipt, error) {
	if !o.processing.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer o.processing.Store(false)

	a := &attempt{
		id:        uuid.NewString(),
		user:      user,
		items:     o.cart.Items(),
		itemCount: o.cart.TotalItemCount(),
		total:     o.cart.TotalAmount(),
	}

	o.mu.Lock()
	if o.state.Terminal() {
		o.state = StateIdle
	}
	a.details = o.details
	o.attemptID = a.id
	o.ran = append(o.ran, a.id)
	if len(o.ran) > recentAttempts {
		o.ran = o.ran[len(o.ran)-recentAttempts:]
	}
	o.mu.Unlock()
	details := a.details

	ctx, span := o.tracer.Start(ctx, "checkout.attempt", trace.WithAttributes(
		attribute.String("checkout.attempt_id", a.id),
		attribute.String("checkout.payment_method", string(details.PaymentMethod)),
		attribute.String("checkout.total", a.total.StringFixed(2)),
		attribute.Int("checkout.items", a.itemCount),
	))
	defer span.End()

	slog.InfoContext(ctx, "checkout started", "attempt_id", a.id, "payment_method", details.PaymentMethod, "total", a.total.StringFixed(2))
	o.transition(ctx, a, StateValidatingDetails, o.payload(a), nil)

	if err := validate(details, len(a.items), o.clock()); err != nil {
		o.finish(ctx, a, StateIdle, nil, err)
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	steps := o.cashSteps
	if details.PaymentMethod == entity.PaymentOnline {
		steps = o.onlineSteps
	}

	for _, s := range steps {
		o.transition(ctx, a, s.State(), "", nil)
		slog.InfoContext(ctx, "executing step", "attempt_id", a.id, "step", s.Name())

		if err := s.Execute(ctx, a); err != nil {
			slog.WarnContext(ctx, "step failed", "attempt_id", a.id, "step", s.Name(), "error", err)
			span.RecordError(err)

			final := StateFailed
			if errors.Is(err, ErrCancelled) {
				final = StateIdle
			} else {
				span.SetStatus(codes.Error, s.Name()+" failed")
			}
			o.finish(ctx, a, final, nil, err)
			return nil, err
		}
	}

	receipt := &Receipt{
		OrderID:       a.orderID,
		AttemptID:     a.id,
		Amount:        a.total,
		PickupDate:    details.PickupDate,
		PickupTime:    details.PickupTime,
		PaymentMethod: details.PaymentMethod,
	}

	o.cart.Clear()
	o.resetDetails()
	o.LoadDefaults(ctx)

	slog.InfoContext(ctx, "checkout completed", "attempt_id", a.id, "order_id", a.orderID)
	o.finish(ctx, a, StateSucceeded, receipt, nil)
	return receipt, nil
}

func (o *Orchestrator) resetDetails() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.details = entity.FulfillmentDetails{PaymentMethod: entity.PaymentCash}
}

func (o *Orchestrator) finish(ctx context.Context, a *attempt, final State, receipt *Receipt, err error) {
	var errs []string
	if err != nil {
		errs = []string{err.Error()}
	}
	o.transition(ctx, a, final, "", errs)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = Outcome{AttemptID: a.id, State: final, Receipt: receipt, Err: err}
}

func (o *Orchestrator) transition(ctx context.Context, a *attempt, to State, payload string, errs []string) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	slog.DebugContext(ctx, "checkout state changed", "attempt_id", a.id, "from", from, "to", to)

	if o.log == nil {
		return
	}
	entry := attemptlog.NewEntry(ctx, a.id, string(to), string(a.details.PaymentMethod), payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to write attempt log", "attempt_id", a.id, "error", err)
	}
}

type orderSnapshot struct {
	Items         []entity.CartItem    `json:"items"`
	Total         decimal.Decimal      `json:"totalAmount"`
	PaymentMethod entity.PaymentMethod `json:"paymentMethod"`
	PickupDate    string               `json:"pickupDate"`
	PickupTime    string               `json:"pickupTime"`
}

func (o *Orchestrator) payload(a *attempt) string {
	b, err := json.Marshal(orderSnapshot{
		Items:         a.items,
		Total:         a.total,
		PaymentMethod: a.details.PaymentMethod,
		PickupDate:    a.details.PickupDate,
		PickupTime:    a.details.PickupTime,
	})
	if err != nil {
		return ""
	}
	return string(b)
}

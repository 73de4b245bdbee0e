package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNoPendingPrompt = errors.New("payment: no pending prompt")

// PromptKind tells the UI what it is being asked for.
type PromptKind string

const (
	PromptCash    PromptKind = "cash_confirmation"
	PromptPayment PromptKind = "payment_sheet"
)

// CashSummary is what the customer confirms before a cash order.
type CashSummary struct {
	Amount     decimal.Decimal `json:"amount"`
	PickupDate string          `json:"pickupDate"`
	PickupTime string          `json:"pickupTime"`
	ItemCount  int             `json:"itemCount"`
}

// Prompt is the interaction currently waiting on the customer.
type Prompt struct {
	Kind         PromptKind       `json:"kind"`
	SessionID    string           `json:"sessionId,omitempty"`
	ClientSecret string           `json:"clientSecret,omitempty"`
	Customer     *CustomerContext `json:"customer,omitempty"`
	Cash         *CashSummary     `json:"cash,omitempty"`
}

// PaymentResult is what the UI reports after presenting the payment sheet.
type PaymentResult struct {
	ConfirmationID string         `json:"confirmationId"`
	Error          *ProviderError `json:"error,omitempty"`
}

// Relay hands prompts to a UI that lives on the other side of a request/
// response transport. The checkout goroutine blocks in Present or ConfirmCash
// until the UI resolves the prompt, or ctx ends.
type Relay struct {
	mu      sync.Mutex
	pending *waiter
}

// waiter is one open prompt and the channel its single answer goes to. The
// channel is buffered so an answer that arrives before Present is kept.
type waiter struct {
	prompt   Prompt
	payments chan PaymentResult
	cash     chan bool
	answered bool
}

func NewRelay() *Relay {
	return &Relay{}
}

// Pending returns a copy of the prompt still waiting for an answer, if any.
func (r *Relay) Pending() (Prompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil || r.pending.answered {
		return Prompt{}, false
	}
	return r.pending.prompt, true
}

func (r *Relay) Initialize(_ context.Context, clientSecret string, customer CustomerContext) (SessionHandle, error) {
	if clientSecret == "" {
		return SessionHandle{}, &ProviderError{Message: "Failed to init payment sheet.", Code: "Failed"}
	}
	handle := SessionHandle{ID: uuid.NewString(), ClientSecret: clientSecret}
	r.open(Prompt{
		Kind:         PromptPayment,
		SessionID:    handle.ID,
		ClientSecret: clientSecret,
		Customer:     &customer,
	})
	return handle, nil
}

func (r *Relay) Present(ctx context.Context, session SessionHandle) (string, error) {
	r.mu.Lock()
	w := r.pending
	r.mu.Unlock()
	if w == nil || w.prompt.Kind != PromptPayment || w.prompt.SessionID != session.ID {
		return "", ErrNoPendingPrompt
	}
	defer r.close(w)

	select {
	case res := <-w.payments:
		if res.Error != nil {
			return "", res.Error
		}
		return res.ConfirmationID, nil
	case <-ctx.Done():
		return "", &ProviderError{Message: "The payment was not completed.", Code: "Canceled"}
	}
}

// ConfirmCash implements checkout.CashConfirmer.
func (r *Relay) ConfirmCash(ctx context.Context, summary CashSummary) (bool, error) {
	w := r.open(Prompt{Kind: PromptCash, Cash: &summary})
	defer r.close(w)

	select {
	case ok := <-w.cash:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (r *Relay) ResolvePayment(res PaymentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.pending
	if w == nil || w.answered || w.prompt.Kind != PromptPayment {
		return ErrNoPendingPrompt
	}
	w.payments <- res
	w.answered = true
	return nil
}

func (r *Relay) ResolveCash(confirmed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.pending
	if w == nil || w.answered || w.prompt.Kind != PromptCash {
		return ErrNoPendingPrompt
	}
	w.cash <- confirmed
	w.answered = true
	return nil
}

// open replaces any earlier prompt. Each prompt accepts exactly one answer.
func (r *Relay) open(p Prompt) *waiter {
	w := &waiter{prompt: p}
	switch p.Kind {
	case PromptPayment:
		w.payments = make(chan PaymentResult, 1)
	case PromptCash:
		w.cash = make(chan bool, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = w
	return w
}

// close clears w if it is still the open prompt.
func (r *Relay) close(w *waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == w {
		r.pending = nil
	}
}

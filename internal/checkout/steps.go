package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/defaults"
	"github.com/jcmexdev/storefront/internal/payment"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// step is one stage of an attempt. Steps run in order; the first error ends
// the attempt.
type step interface {
	Name() string
	State() State
	Execute(ctx context.Context, a *attempt) error
}

// attempt is the snapshot one checkout works on.
type attempt struct {
	id        string
	user      *User
	details   entity.FulfillmentDetails
	items     []entity.CartItem
	itemCount int
	total     decimal.Decimal

	// set by the payment step
	session         entity.PaymentSession
	paymentIntentID *string

	orderID string
}

// --- CashConfirmationStep ---

type cashConfirmationStep struct {
	confirmer CashConfirmer
}

func (s *cashConfirmationStep) Name() string { return "Cash_Confirmation_Step" }
func (s *cashConfirmationStep) State() State { return StateCashConfirming }

func (s *cashConfirmationStep) Execute(ctx context.Context, a *attempt) error {
	ok, err := s.confirmer.ConfirmCash(ctx, payment.CashSummary{
		Amount:     a.total,
		PickupDate: a.details.PickupDate,
		PickupTime: a.details.PickupTime,
		ItemCount:  a.itemCount,
	})
	if err != nil {
		slog.WarnContext(ctx, "cash confirmation failed", "attempt_id", a.id, "error", err)
		return ErrCancelled
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// --- PaymentSessionStep ---

type paymentSessionStep struct {
	backend  Backend
	defaults Defaults
	provider payment.Provider
}

func (s *paymentSessionStep) Name() string { return "Payment_Session_Step" }
func (s *paymentSessionStep) State() State { return StateOnlinePaying }

func (s *paymentSessionStep) Execute(ctx context.Context, a *attempt) error {
	a.session.AmountCents = a.total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	cached, _ := s.defaults.Get(ctx, defaults.KeyCustomerID)
	var email string
	if a.user != nil {
		email = a.user.Email
	}

	sheet, err := s.backend.CreatePaymentSheet(ctx, entity.PaymentSheetRequest{
		Amount:     a.session.AmountCents,
		Email:      email,
		CustomerID: cached,
	})
	if err != nil {
		return &PaymentInitError{Message: "Failed to initiate online payment.", Err: err}
	}
	if sheet.Error != "" {
		if strings.Contains(strings.ToLower(sheet.Error), "customer") {
			slog.InfoContext(ctx, "clearing rejected payment customer", "attempt_id", a.id)
			s.defaults.Remove(ctx, defaults.KeyCustomerID)
			return &PaymentInitError{Message: sheet.Error, CustomerInvalidated: true}
		}
		return &PaymentInitError{Message: sheet.Error}
	}
	if sheet.PaymentIntent == "" {
		return &PaymentInitError{Message: "Failed to initialize payment"}
	}

	if sheet.Customer != "" && sheet.Customer != cached {
		// a failed write only costs a new customer next time
		_ = s.defaults.Set(ctx, defaults.KeyCustomerID, sheet.Customer)
	}

	a.session.CustomerID = sheet.Customer
	a.session.ClientSecret = sheet.PaymentIntent
	a.session.EphemeralKey = sheet.EphemeralKey
	a.session.Status = entity.PaymentSessionReady

	handle, err := s.provider.Initialize(ctx, a.session.ClientSecret, payment.CustomerContext{
		CustomerID:   a.session.CustomerID,
		EphemeralKey: a.session.EphemeralKey,
		Email:        email,
	})
	if err != nil {
		a.session.Status = entity.PaymentSessionFailed
		return providerFailure(err)
	}

	a.session.Status = entity.PaymentSessionPresented
	confirmation, err := s.provider.Present(ctx, handle)
	if err != nil {
		a.session.Status = entity.PaymentSessionFailed
		return providerFailure(err)
	}

	a.session.Status = entity.PaymentSessionSucceeded
	if confirmation != "" {
		a.paymentIntentID = &confirmation
	}
	return nil
}

func providerFailure(err error) error {
	var perr *payment.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &PaymentInitError{Message: "Failed to init payment sheet.", Err: err}
}

// --- SubmitOrderStep ---

type submitOrderStep struct {
	backend Backend
}

func (s *submitOrderStep) Name() string { return "Submit_Order_Step" }
func (s *submitOrderStep) State() State { return StateSubmitting }

func (s *submitOrderStep) Execute(ctx context.Context, a *attempt) error {
	if a.user == nil || a.user.ID == "" {
		return ErrAuthRequired
	}

	order := &entity.Order{
		Items:           a.items,
		UserID:          a.user.ID,
		ContactNumber:   a.details.ContactNumber,
		Notes:           a.details.Notes,
		PaymentMethod:   a.details.PaymentMethod,
		PaymentIntentID: a.paymentIntentID,
		TotalAmount:     a.total,
		PickupDate:      a.details.PickupDate,
		PickupTime:      a.details.PickupTime,
	}

	id, err := s.backend.PlaceOrder(ctx, order)
	if err != nil {
		return &SubmitError{Err: fmt.Errorf("place order: %w", err)}
	}
	a.orderID = id
	return nil
}

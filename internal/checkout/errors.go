package checkout

import (
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/payment"
)

var (
	// ErrAuthRequired is returned when an order is about to be submitted
	// without a signed-in user.
	ErrAuthRequired = errors.New("checkout: sign-in required")

	// ErrCancelled is returned when the customer declines the cash
	// confirmation.
	ErrCancelled = errors.New("checkout: cancelled by customer")

	// ErrInProgress is returned while another attempt is being processed.
	ErrInProgress = errors.New("checkout: attempt already in progress")
)

// ValidationError is a problem with the fulfillment form or the cart. No
// network call has been made when it is returned.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %s: %s", e.Title, e.Message)
}

// PaymentInitError means the payment session could not be opened.
type PaymentInitError struct {
	Message string
	// CustomerInvalidated is set when the backend rejected the cached
	// payment customer and it has been forgotten.
	CustomerInvalidated bool
	Err                 error
}

func (e *PaymentInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout: payment init: %s: %v", e.Message, e.Err)
	}
	return "checkout: payment init: " + e.Message
}

func (e *PaymentInitError) Unwrap() error { return e.Err }

// SubmitError means the backend did not accept the order. The cart is left
// as it was.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("checkout: submit order: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// UserMessage converts a checkout error into the title and text shown to the
// customer. Transport details never leak into the message.
func UserMessage(err error) (title, message string) {
	if err == nil {
		return "", ""
	}

	var (
		verr *ValidationError
		perr *payment.ProviderError
		ierr *PaymentInitError
		serr *SubmitError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Title, verr.Message
	case errors.Is(err, ErrAuthRequired):
		return "Not signed in", "Please sign in to place an order."
	case errors.Is(err, ErrInProgress):
		return "Please wait", "Your order is already being processed."
	case errors.Is(err, ErrCancelled):
		return "Order cancelled", "Your order was not placed."
	case errors.As(err, &perr):
		return "Payment Error", perr.Detail()
	case errors.As(err, &ierr):
		if ierr.Err != nil || ierr.Message == "" {
			return "Payment Error", "Failed to initiate online payment."
		}
		return "Payment Error", ierr.Message
	case errors.As(err, &serr):
		return "Error", "Could not place order. Please try again."
	default:
		return "Error", "Something went wrong. Please try again."
	}
}

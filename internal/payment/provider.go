// Package payment models the hosted payment UI as a capability the checkout
// orchestrator drives: initialize a session with a client secret, then present
// it and wait for the customer to finish.
package payment

import (
	"context"
	"fmt"
	"strings"
)

// CustomerContext carries what the hosted UI needs besides the client secret.
type CustomerContext struct {
	CustomerID   string `json:"customerId,omitempty"`
	EphemeralKey string `json:"ephemeralKey,omitempty"`
	Email        string `json:"email,omitempty"`
}

// SessionHandle identifies an initialized payment session.
type SessionHandle struct {
	ID           string
	ClientSecret string
}

type Provider interface {
	Initialize(ctx context.Context, clientSecret string, customer CustomerContext) (SessionHandle, error)
	// Present blocks until the customer completes or abandons payment and
	// returns the provider's confirmation id on success.
	Present(ctx context.Context, session SessionHandle) (string, error)
}

// ProviderError is a failure reported by the payment provider. Message is
// what the provider wants shown; the rest is diagnostic.
type ProviderError struct {
	Message          string `json:"message"`
	Code             string `json:"code,omitempty"`
	Type             string `json:"type,omitempty"`
	DeclineCode      string `json:"declineCode,omitempty"`
	ProviderCode     string `json:"providerCode,omitempty"`
	LocalizedMessage string `json:"localizedMessage,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider: %s (%s)", e.message(), e.Code)
	}
	return "payment provider: " + e.message()
}

// Detail is the text shown to the customer.
func (e *ProviderError) Detail() string {
	var b strings.Builder
	b.WriteString(e.message())
	if e.DeclineCode != "" {
		b.WriteString("\n\nDecline Code: " + e.DeclineCode)
	}
	if e.ProviderCode != "" {
		b.WriteString("\n\nProvider Error: " + e.ProviderCode)
	}
	if e.LocalizedMessage != "" && e.LocalizedMessage != e.Message {
		b.WriteString("\n\n" + e.LocalizedMessage)
	}
	return b.String()
}

func (e *ProviderError) message() string {
	if e.Message == "" {
		return "Payment failed"
	}
	return e.Message
}

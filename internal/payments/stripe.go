package payments

import (
	"context"
	"os"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeFares settles fare holds attached to requests: trips finishing
// capture the held PaymentIntent, cancellations release it. Holds are
// created rider-side; this agent only finalises them.
type StripeFares struct{}

// NewStripeFares initializes the stripe client with the STRIPE_API_KEY env var.
func NewStripeFares() *StripeFares {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeFares{}
}

// Capture finalizes a previously-held PaymentIntent.
func (s *StripeFares) Capture(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Capture(paymentIntentID, nil)
	return err
}

// Cancel releases the hold on a PaymentIntent.
func (s *StripeFares) Cancel(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Cancel(paymentIntentID, nil)
	return err
}

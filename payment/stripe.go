package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeProcessor charges payments through Stripe payment intents. Amounts
// are converted to minor units.
type StripeProcessor struct {
	Currency string
}

func NewStripeProcessor(apiKey, currency string) *StripeProcessor {
	stripe.Key = apiKey
	if currency == "" {
		currency = "inr"
	}
	return &StripeProcessor{Currency: currency}
}

func (s *StripeProcessor) Charge(ctx context.Context, p Payment) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(p.Amount * 100)),
		Currency: stripe.String(s.Currency),
		Confirm:  stripe.Bool(true),
		Metadata: map[string]string{
			"rideId": p.RideID.Hex(),
			"userId": p.UserID.Hex(),
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe charge: %w", err)
	}
	return pi.ID, nil
}

package entitlement

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// StripeProvider validates the pro tier against the customer's active
// Stripe subscriptions. It never creates or mutates billing objects —
// checkout happens in the store app, not here.
type StripeProvider struct {
	client     *stripe.Client
	customerID string
}

// NewStripeProvider creates a provider for a single customer.
func NewStripeProvider(secretKey, customerID string) *StripeProvider {
	return &StripeProvider{
		client:     stripe.NewClient(secretKey),
		customerID: customerID,
	}
}

func (p *StripeProvider) Validate(ctx context.Context) (bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(p.customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Limit = stripe.Int64(1)

	for sub, err := range p.client.V1Subscriptions.List(ctx, params) {
		if err != nil {
			return false, err
		}
		if sub != nil {
			return true, nil
		}
	}
	return false, nil
}

// Purchase re-validates: by the time the app calls unlock, the store-side
// checkout has already completed, so an active subscription is the only
// evidence needed.
func (p *StripeProvider) Purchase(ctx context.Context) (bool, error) {
	return p.Validate(ctx)
}

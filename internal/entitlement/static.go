package entitlement

import "context"

// StaticProvider always reports a fixed entitlement. Used in development
// mode when no Stripe credentials are configured.
type StaticProvider struct {
	Pro bool
}

func (p *StaticProvider) Validate(ctx context.Context) (bool, error) {
	return p.Pro, nil
}

func (p *StaticProvider) Purchase(ctx context.Context) (bool, error) {
	p.Pro = true
	return true, nil
}

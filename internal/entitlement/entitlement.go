package entitlement

import "context"

// Provider is the subscription/entitlement collaborator. The purchase flow
// itself (checkout, receipts) lives outside this service; the quota ledger
// only consumes the boolean outcome.
type Provider interface {
	// Validate re-checks that the pro entitlement is still active.
	Validate(ctx context.Context) (bool, error)
	// Purchase attempts to unlock the pro tier and reports whether the
	// account is pro afterwards.
	Purchase(ctx context.Context) (bool, error)
}

package ports

import "context"

// EscrowService is the on-chain payment capability consumed after an access
// grant. The gate treats it as opaque: operations are keyed by a payment
// identifier whose meaning belongs to the escrow contract, not to this core.
type EscrowService interface {
	Create(ctx context.Context, paymentID string) error
	Complete(ctx context.Context, paymentID string) error
	Refund(ctx context.Context, paymentID string) error
	Slash(ctx context.Context, paymentID string) error
}

package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// PaymentsPort is the boundary to the external payment collaborator.
// Capture is expected to record exactly one payment per booking.
type PaymentsPort interface {
	Capture(ctx context.Context, bookingID string, amount money.Money) (paymentID string, err error)
	Refund(ctx context.Context, bookingID string, amount money.Money) error
}

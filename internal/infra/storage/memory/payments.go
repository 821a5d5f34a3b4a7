package memory

import (
	"context"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/money"
)

// PaymentsLedger is a stand-in payment gateway that records captures in
// the payment repository. Real gateway integration is out of scope; the
// orchestrator only needs the port contract.
type PaymentsLedger struct {
	Payments domainpayment.Repository
	Clock    clock.Clock
	Method   domainpayment.Method
}

func NewPaymentsLedger(payments domainpayment.Repository, clk clock.Clock) *PaymentsLedger {
	if clk == nil {
		clk = clock.System()
	}
	return &PaymentsLedger{Payments: payments, Clock: clk, Method: domainpayment.MethodCreditCard}
}

func (l *PaymentsLedger) Capture(ctx context.Context, bookingID string, amount money.Money) (string, error) {
	p, err := domainpayment.New(
		domainpayment.ID(uuid.NewString()),
		domainbooking.ID(bookingID),
		amount,
		l.Method,
		l.Clock.Now(),
	)
	if err != nil {
		return "", err
	}
	if err := l.Payments.Save(ctx, p); err != nil {
		return "", err
	}
	return string(p.ID), nil
}

func (l *PaymentsLedger) Refund(ctx context.Context, bookingID string, amount money.Money) error {
	// The ledger keeps the original capture; refund accounting lives with
	// the external gateway.
	_, err := l.Payments.ByBooking(ctx, domainbooking.ID(bookingID))
	return err
}

var _ policies.PaymentsPort = (*PaymentsLedger)(nil)

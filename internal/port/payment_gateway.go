package port

import (
	"context"

	"github.com/shopspring/decimal"
)

type ChargeResult struct {
	Accepted      bool
	TransactionID string
	Message       string
}

type RefundResult struct {
	Accepted bool
	Message  string
}

// PaymentGateway is the external payment processor. An error means the call
// itself failed (transport, timeout); a declined charge is not an error.
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (ChargeResult, error)
	RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (RefundResult, error)
}

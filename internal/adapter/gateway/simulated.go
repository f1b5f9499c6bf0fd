package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

// DefaultChargeLimit is the largest single charge Simulated accepts.
var DefaultChargeLimit = decimal.NewFromInt(1000)

// Simulated is an in-process stand-in for the external payment processor.
// It remembers the charges it accepted so that refunds can be checked
// against them.
type Simulated struct {
	mu      sync.Mutex
	limit   decimal.Decimal
	charges map[string]decimal.Decimal // transaction id -> amount left to refund
}

func NewSimulated() *Simulated {
	return &Simulated{
		limit:   DefaultChargeLimit,
		charges: make(map[string]decimal.Decimal),
	}
}

func (s *Simulated) ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (port.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return port.ChargeResult{}, err
	}
	if !amount.IsPositive() {
		return port.ChargeResult{Message: "Invalid amount: must be greater than 0"}, nil
	}
	if amount.GreaterThan(s.limit) {
		return port.ChargeResult{Message: "Payment declined: amount exceeds limit"}, nil
	}

	txnID := domain.TransactionIDPrefix + patronID + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	s.mu.Lock()
	s.charges[txnID] = amount
	s.mu.Unlock()

	return port.ChargeResult{
		Accepted:      true,
		TransactionID: txnID,
		Message:       fmt.Sprintf("Payment of $%s processed successfully", amount.StringFixed(2)),
	}, nil
}

func (s *Simulated) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (port.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return port.RefundResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, ok := s.charges[transactionID]
	if !ok {
		return port.RefundResult{Message: "Transaction not found"}, nil
	}
	if amount.GreaterThan(remaining) {
		return port.RefundResult{Message: "Refund amount exceeds original payment"}, nil
	}
	s.charges[transactionID] = remaining.Sub(amount)

	return port.RefundResult{
		Accepted: true,
		Message:  fmt.Sprintf("Refund of $%s processed successfully. Refund ID: refund_%s", amount.StringFixed(2), uuid.NewString()),
	}, nil
}

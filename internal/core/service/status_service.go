package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

type StatusReporter struct {
	loans  port.LoanRepository
	fees   FeeQuoter
	logger *slog.Logger
}

func NewStatusReporter(loans port.LoanRepository, fees FeeQuoter, logger *slog.Logger) *StatusReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusReporter{loans: loans, fees: fees, logger: logger}
}

// GetPatronStatus returns nil without an error for a malformed patron id and
// for a patron with no outstanding loans or no history.
func (r *StatusReporter) GetPatronStatus(ctx context.Context, patronID string) (*domain.PatronReport, error) {
	if !validPatronID(patronID) {
		return nil, nil
	}

	borrowed, err := r.loans.GetPatronBorrowedBooks(ctx, patronID)
	if err != nil {
		r.logger.Error("status borrowed lookup failed", "patron_id", patronID, "error", err)
		return nil, ErrLoanLookupFailed.withCause(err)
	}
	history, err := r.loans.GetPatronBorrowingHistory(ctx, patronID)
	if err != nil {
		r.logger.Error("status history lookup failed", "patron_id", patronID, "error", err)
		return nil, ErrLoanLookupFailed.withCause(err)
	}
	if len(borrowed) == 0 || len(history) == 0 {
		return nil, nil
	}

	owed := decimal.Zero
	for _, loan := range borrowed {
		quote := r.fees.ComputeFee(ctx, patronID, loan.BookID)
		if quote.Overdue() {
			owed = owed.Add(quote.FeeAmount)
		}
	}

	return &domain.PatronReport{
		PatronID:          patronID,
		CurrentlyBorrowed: borrowed,
		TotalLateFeesOwed: owed,
		BorrowingHistory:  history,
	}, nil
}

package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	feeStatusBookNotFound   = "Book not found."
	feeStatusRecordNotFound = "Borrow record not found."

	// days overdue after which the daily rate rises
	firstTierDays = 7
)

var (
	firstTierDailyRate = decimal.RequireFromString("0.50")
	lateTierDailyRate  = decimal.RequireFromString("1.00")
)

// FeeQuoter computes the late fee owed on one loan.
type FeeQuoter interface {
	ComputeFee(ctx context.Context, patronID string, bookID int64) domain.FeeQuote
}

// LateFee returns the fee and whole days overdue for a loan due at dueDate,
// evaluated at now. Days are floored and never negative.
//
// Days 1-6 accrue $0.50 per day, from day 7 on the first seven days stay at
// $0.50 and every further day costs $1.00, capped at domain.MaxLateFee.
func LateFee(dueDate, now time.Time) (decimal.Decimal, int) {
	days := int(math.Floor(now.Sub(dueDate).Hours() / 24))
	if days <= 0 {
		return decimal.Zero, 0
	}
	if days < firstTierDays {
		return firstTierDailyRate.Mul(decimal.NewFromInt(int64(days))), days
	}

	fee := firstTierDailyRate.Mul(decimal.NewFromInt(firstTierDays)).
		Add(lateTierDailyRate.Mul(decimal.NewFromInt(int64(days - firstTierDays))))
	return decimal.Min(fee, domain.MaxLateFee), days
}

type FeeCalculator struct {
	repo   port.LibraryRepository
	clock  Clock
	logger *slog.Logger
}

func NewFeeCalculator(repo port.LibraryRepository, clock Clock, logger *slog.Logger) *FeeCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeeCalculator{repo: repo, clock: clock, logger: logger}
}

// ComputeFee never fails: problems are reported through the quote status with
// a zero fee and nil DaysOverdue.
func (c *FeeCalculator) ComputeFee(ctx context.Context, patronID string, bookID int64) domain.FeeQuote {
	if !validPatronID(patronID) {
		return unquoted(ErrInvalidPatronID.Message)
	}

	book, err := c.repo.GetBookByID(ctx, bookID)
	if err != nil {
		c.logger.Error("fee book lookup failed", "patron_id", patronID, "book_id", bookID, "error", err)
		return unquoted(ErrFeeUnavailable.Message)
	}
	if book == nil {
		return unquoted(feeStatusBookNotFound)
	}

	loan, err := c.findLoan(ctx, patronID, bookID)
	if err != nil {
		c.logger.Error("fee loan lookup failed", "patron_id", patronID, "book_id", bookID, "error", err)
		return unquoted(ErrFeeUnavailable.Message)
	}
	if loan == nil {
		return unquoted(feeStatusRecordNotFound)
	}

	at := c.clock.now()
	if loan.ReturnDate != nil {
		at = *loan.ReturnDate
	}
	fee, days := LateFee(loan.DueDate, at)

	status := domain.FeeStatusOverdue
	if days == 0 {
		status = domain.FeeStatusNotOverdue
	}
	return domain.FeeQuote{FeeAmount: fee, DaysOverdue: &days, Status: status, DueDate: loan.DueDate}
}

// findLoan prefers the outstanding loan and falls back to the most recently
// borrowed returned one.
func (c *FeeCalculator) findLoan(ctx context.Context, patronID string, bookID int64) (*domain.LoanRecord, error) {
	borrowed, err := c.repo.GetPatronBorrowedBooks(ctx, patronID)
	if err != nil {
		return nil, err
	}
	for i := range borrowed {
		if borrowed[i].BookID == bookID {
			return &borrowed[i], nil
		}
	}

	history, err := c.repo.GetPatronBorrowingHistory(ctx, patronID)
	if err != nil {
		return nil, err
	}
	var latest *domain.LoanRecord
	for i := range history {
		if history[i].BookID != bookID {
			continue
		}
		if latest == nil || history[i].BorrowDate.After(latest.BorrowDate) {
			latest = &history[i]
		}
	}
	return latest, nil
}

func unquoted(status string) domain.FeeQuote {
	return domain.FeeQuote{FeeAmount: decimal.Zero, Status: status}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FeeStatusNotOverdue = "Not overdue"
	FeeStatusOverdue    = "Overdue"
)

// MaxLateFee is the cap on the fee charged for a single loan.
var MaxLateFee = decimal.RequireFromString("15.00")

// FeeQuote is recomputed on every request and never stored. DaysOverdue is
// nil and DueDate is zero when no loan could be evaluated.
type FeeQuote struct {
	FeeAmount   decimal.Decimal
	DaysOverdue *int
	Status      string
	DueDate     time.Time
}

func (q FeeQuote) Overdue() bool {
	return q.Status == FeeStatusOverdue
}

type PatronReport struct {
	PatronID          string
	CurrentlyBorrowed []LoanRecord
	TotalLateFeesOwed decimal.Decimal
	BorrowingHistory  []LoanRecord
}

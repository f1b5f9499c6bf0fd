package domain

import "time"

const (
	LoanPeriod     = 14 * 24 * time.Hour
	MaxActiveLoans = 5
)

type LoanRecord struct {
	PatronID   string
	BookID     int64
	Title      string // joined from the book on reads
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// Outstanding reports whether the book has not been returned yet.
func (l LoanRecord) Outstanding() bool {
	return l.ReturnDate == nil
}

// NewLoanRecord starts a loan at borrowedAt with the standard loan period.
func NewLoanRecord(patronID string, bookID int64, borrowedAt time.Time) LoanRecord {
	return LoanRecord{
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: borrowedAt,
		DueDate:    borrowedAt.Add(LoanPeriod),
	}
}

package port

import (
	"context"
	"errors"
	"time"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
)

var (
	// ErrDuplicateKey is returned when an insert collides with a unique key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when a guarded update matched no row, e.g. an
	// availability change that would leave the counter out of range.
	ErrConflict = errors.New("storage conflict")
)

type BookRepository interface {
	// GetBookByID returns nil when no book has the given id
	GetBookByID(ctx context.Context, id int64) (*domain.Book, error)

	// GetBookByISBN returns nil when no book has the given isbn
	GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error)

	GetAllBooks(ctx context.Context) ([]domain.Book, error)

	// InsertBook stores a new book and assigns its ID
	InsertBook(ctx context.Context, book *domain.Book) error

	// UpdateBookAvailability adds delta to the available copies
	UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error
}

type LoanRepository interface {
	InsertBorrowRecord(ctx context.Context, record domain.LoanRecord) error

	// UpdateBorrowRecordReturnDate closes the outstanding loan of patronID for bookID
	UpdateBorrowRecordReturnDate(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error

	// GetPatronBorrowCount counts outstanding loans
	GetPatronBorrowCount(ctx context.Context, patronID string) (int, error)

	// GetPatronBorrowedBooks lists outstanding loans
	GetPatronBorrowedBooks(ctx context.Context, patronID string) ([]domain.LoanRecord, error)

	// GetPatronBorrowingHistory lists every loan, returned or not
	GetPatronBorrowingHistory(ctx context.Context, patronID string) ([]domain.LoanRecord, error)
}

type LibraryRepository interface {
	BookRepository
	LoanRepository
}

// LoanTransactor is implemented by repositories that can apply the loan
// record change and the availability change as one atomic unit.
type LoanTransactor interface {
	BorrowTx(ctx context.Context, record domain.LoanRecord) error
	ReturnTx(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error
}

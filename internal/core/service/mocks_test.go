package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

var errDBDown = errors.New("db down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock returns a Clock reading *now, so tests can move time forward.
func fixedClock(now *time.Time) Clock {
	return func() time.Time { return *now }
}

// Mock LibraryRepository. It does not implement port.LoanTransactor, so
// services fall back to sequential writes. fail maps a method name to the
// error it should return.
type mockLibrary struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]domain.Book
	loans  []domain.LoanRecord
	fail   map[string]error
}

func newMockLibrary() *mockLibrary {
	return &mockLibrary{
		books: make(map[int64]domain.Book),
		fail:  make(map[string]error),
	}
}

func (m *mockLibrary) addBook(title string, copies int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.books[m.nextID] = domain.Book{
		ID:              m.nextID,
		Title:           title,
		Author:          "Author",
		ISBN:            fmt.Sprintf("%013d", m.nextID),
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	return m.nextID
}

func (m *mockLibrary) addLoan(patronID string, bookID int64, borrowedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans = append(m.loans, domain.NewLoanRecord(patronID, bookID, borrowedAt))
}

func (m *mockLibrary) available(bookID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[bookID].AvailableCopies
}

func (m *mockLibrary) failing(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail[method]
}

func (m *mockLibrary) GetBookByID(ctx context.Context, id int64) (*domain.Book, error) {
	if err := m.failing("GetBookByID"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *mockLibrary) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	if err := m.failing("GetBookByISBN"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.ISBN == isbn {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *mockLibrary) GetAllBooks(ctx context.Context) ([]domain.Book, error) {
	if err := m.failing("GetAllBooks"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	books := make([]domain.Book, 0, len(m.books))
	for id := int64(1); id <= m.nextID; id++ {
		if b, ok := m.books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

func (m *mockLibrary) InsertBook(ctx context.Context, book *domain.Book) error {
	if err := m.failing("InsertBook"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	book.ID = m.nextID
	m.books[book.ID] = *book
	return nil
}

func (m *mockLibrary) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	if err := m.failing("UpdateBookAvailability"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.books[bookID]
	b.AvailableCopies += delta
	m.books[bookID] = b
	return nil
}

func (m *mockLibrary) InsertBorrowRecord(ctx context.Context, record domain.LoanRecord) error {
	if err := m.failing("InsertBorrowRecord"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loans = append(m.loans, record)
	return nil
}

func (m *mockLibrary) UpdateBorrowRecordReturnDate(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	if err := m.failing("UpdateBorrowRecordReturnDate"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.loans {
		if m.loans[i].PatronID == patronID && m.loans[i].BookID == bookID && m.loans[i].Outstanding() {
			rd := returnDate
			m.loans[i].ReturnDate = &rd
			return nil
		}
	}
	return port.ErrConflict
}

func (m *mockLibrary) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	if err := m.failing("GetPatronBorrowCount"); err != nil {
		return 0, err
	}
	loans, _ := m.patronLoans(patronID, true)
	return len(loans), nil
}

func (m *mockLibrary) GetPatronBorrowedBooks(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	if err := m.failing("GetPatronBorrowedBooks"); err != nil {
		return nil, err
	}
	return m.patronLoans(patronID, true)
}

func (m *mockLibrary) GetPatronBorrowingHistory(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	if err := m.failing("GetPatronBorrowingHistory"); err != nil {
		return nil, err
	}
	return m.patronLoans(patronID, false)
}

func (m *mockLibrary) patronLoans(patronID string, outstandingOnly bool) ([]domain.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.LoanRecord{}
	for _, l := range m.loans {
		if l.PatronID != patronID || (outstandingOnly && !l.Outstanding()) {
			continue
		}
		l.Title = m.books[l.BookID].Title
		out = append(out, l)
	}
	return out, nil
}

// Mock CacheRepository
type mockCache struct {
	mu          sync.Mutex
	locks       map[string]string
	idempotency map[string]bool
	err         error
}

func newMockCache() *mockCache {
	return &mockCache{
		locks:       make(map[string]string),
		idempotency: make(map[string]bool),
	}
}

func (m *mockCache) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = token
	return true, nil
}

func (m *mockCache) ReleaseLock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}

func (m *mockCache) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotency, key)
	return nil
}

func (m *mockCache) heldLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Mock PaymentGateway
type mockGateway struct {
	mu         sync.Mutex
	charges    int
	refunds    int
	lastAmount decimal.Decimal
	lastDesc   string
	chargeRes  port.ChargeResult
	refundRes  port.RefundResult
	err        error
	panicWith  any
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		chargeRes: port.ChargeResult{Accepted: true, TransactionID: "txn_123456_abc", Message: "Payment processed"},
		refundRes: port.RefundResult{Accepted: true, Message: "Refund processed"},
	}
}

func (m *mockGateway) ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (port.ChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.charges++
	m.lastAmount = amount
	m.lastDesc = description
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.chargeRes, m.err
}

func (m *mockGateway) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (port.RefundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refunds++
	m.lastAmount = amount
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.refundRes, m.err
}

func (m *mockGateway) calls() (charges, refunds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.charges, m.refunds
}

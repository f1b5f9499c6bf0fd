package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

// MemoryAdapter keeps the catalog and loan ledger in process memory.
type MemoryAdapter struct {
	mu     sync.RWMutex
	nextID int64
	books  map[int64]domain.Book
	loans  []domain.LoanRecord
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{books: make(map[int64]domain.Book)}
}

func (m *MemoryAdapter) GetBookByID(ctx context.Context, id int64) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *MemoryAdapter) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.books {
		if b.ISBN == isbn {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) GetAllBooks(ctx context.Context) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (m *MemoryAdapter) InsertBook(ctx context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.ISBN == book.ISBN {
			return fmt.Errorf("insert book %s: %w", book.ISBN, port.ErrDuplicateKey)
		}
	}

	m.nextID++
	book.ID = m.nextID
	m.books[book.ID] = *book
	return nil
}

func (m *MemoryAdapter) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustLocked(bookID, delta)
}

func (m *MemoryAdapter) adjustLocked(bookID int64, delta int) error {
	b, ok := m.books[bookID]
	if !ok {
		return fmt.Errorf("update availability of book %d: %w", bookID, port.ErrConflict)
	}
	next := b.AvailableCopies + delta
	if next < 0 || next > b.TotalCopies {
		return fmt.Errorf("update availability of book %d to %d: %w", bookID, next, port.ErrConflict)
	}
	b.AvailableCopies = next
	m.books[bookID] = b
	return nil
}

func (m *MemoryAdapter) InsertBorrowRecord(ctx context.Context, record domain.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.Title = ""
	m.loans = append(m.loans, record)
	return nil
}

func (m *MemoryAdapter) UpdateBorrowRecordReturnDate(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLoanLocked(patronID, bookID, returnDate)
}

func (m *MemoryAdapter) closeLoanLocked(patronID string, bookID int64, returnDate time.Time) error {
	for i := range m.loans {
		l := &m.loans[i]
		if l.PatronID == patronID && l.BookID == bookID && l.Outstanding() {
			rd := returnDate
			l.ReturnDate = &rd
			return nil
		}
	}
	return fmt.Errorf("close loan of book %d for patron %s: %w", bookID, patronID, port.ErrConflict)
}

func (m *MemoryAdapter) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, l := range m.loans {
		if l.PatronID == patronID && l.Outstanding() {
			count++
		}
	}
	return count, nil
}

func (m *MemoryAdapter) GetPatronBorrowedBooks(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return m.patronLoans(patronID, true), nil
}

func (m *MemoryAdapter) GetPatronBorrowingHistory(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return m.patronLoans(patronID, false), nil
}

func (m *MemoryAdapter) patronLoans(patronID string, outstandingOnly bool) []domain.LoanRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.LoanRecord{}
	for _, l := range m.loans {
		if l.PatronID != patronID || (outstandingOnly && !l.Outstanding()) {
			continue
		}
		if l.ReturnDate != nil {
			rd := *l.ReturnDate
			l.ReturnDate = &rd
		}
		l.Title = m.books[l.BookID].Title
		out = append(out, l)
	}
	return out
}

// BorrowTx appends the loan and takes a copy under one lock.
func (m *MemoryAdapter) BorrowTx(ctx context.Context, record domain.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.adjustLocked(record.BookID, -1); err != nil {
		return err
	}
	record.Title = ""
	m.loans = append(m.loans, record)
	return nil
}

func (m *MemoryAdapter) ReturnTx(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[bookID]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return fmt.Errorf("return book %d: %w", bookID, port.ErrConflict)
	}
	if err := m.closeLoanLocked(patronID, bookID, returnDate); err != nil {
		return err
	}
	return m.adjustLocked(bookID, 1)
}

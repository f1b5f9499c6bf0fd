package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	lockTTL          = 10 * time.Second
	lockWait         = 2 * time.Second
	lockPollInterval = 20 * time.Millisecond

	patronLockPrefix = "lock:patron:"
	bookLockPrefix   = "lock:book:"
)

type LoanService struct {
	repo   port.LibraryRepository
	cache  port.CacheRepository
	clock  Clock
	logger *slog.Logger
}

// NewLoanService builds the loan manager. cache may be nil, in which case
// borrow and return are not serialised.
func NewLoanService(repo port.LibraryRepository, cache port.CacheRepository, clock Clock, logger *slog.Logger) *LoanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanService{
		repo:   repo,
		cache:  cache,
		clock:  clock,
		logger: logger,
	}
}

func (s *LoanService) BorrowBook(ctx context.Context, patronID string, bookID int64) (string, error) {
	if !validPatronID(patronID) {
		return "", ErrInvalidPatronID
	}

	unlock, err := s.lock(ctx, patronLockPrefix+patronID, bookLockPrefix+strconv.FormatInt(bookID, 10))
	if err != nil {
		return "", err
	}
	defer unlock()

	book, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return "", ErrCatalogFailed.withCause(err)
	}
	if book == nil {
		return "", ErrBookNotFound
	}
	if book.AvailableCopies <= 0 {
		return "", ErrBookUnavailable
	}

	count, err := s.repo.GetPatronBorrowCount(ctx, patronID)
	if err != nil {
		return "", ErrLoanLookupFailed.withCause(err)
	}
	if count >= domain.MaxActiveLoans {
		return "", ErrBorrowLimitExceeded
	}

	borrowed, err := s.repo.GetPatronBorrowedBooks(ctx, patronID)
	if err != nil {
		return "", ErrLoanLookupFailed.withCause(err)
	}
	for _, loan := range borrowed {
		if loan.BookID == bookID {
			return "", ErrAlreadyBorrowed
		}
	}

	record := domain.NewLoanRecord(patronID, bookID, s.clock.now())
	if err := s.persistBorrow(ctx, record); err != nil {
		return "", err
	}

	s.logger.Info("book borrowed", "patron_id", patronID, "book_id", bookID, "due_date", formatDate(record.DueDate))
	return fmt.Sprintf(`Successfully borrowed "%s". Due date: %s.`, book.Title, formatDate(record.DueDate)), nil
}

func (s *LoanService) persistBorrow(ctx context.Context, record domain.LoanRecord) error {
	if tx, ok := s.repo.(port.LoanTransactor); ok {
		if err := tx.BorrowTx(ctx, record); err != nil {
			if errors.Is(err, port.ErrConflict) {
				return ErrBookUnavailable
			}
			s.logger.Error("borrow transaction failed", "patron_id", record.PatronID, "book_id", record.BookID, "error", err)
			return ErrBorrowRecordFailed.withCause(err)
		}
		return nil
	}

	if err := s.repo.InsertBorrowRecord(ctx, record); err != nil {
		s.logger.Error("insert borrow record failed", "patron_id", record.PatronID, "book_id", record.BookID, "error", err)
		return ErrBorrowRecordFailed.withCause(err)
	}
	if err := s.repo.UpdateBookAvailability(ctx, record.BookID, -1); err != nil {
		// the borrow record stays in place; the repository offers no rollback
		s.logger.Error("availability decrement failed after borrow record insert",
			"patron_id", record.PatronID, "book_id", record.BookID, "error", err)
		return ErrAvailabilityUpdateFailed.withCause(err)
	}
	return nil
}

func (s *LoanService) ReturnBook(ctx context.Context, patronID string, bookID int64) (string, error) {
	if !validPatronID(patronID) {
		return "", ErrInvalidPatronID
	}

	unlock, err := s.lock(ctx, patronLockPrefix+patronID, bookLockPrefix+strconv.FormatInt(bookID, 10))
	if err != nil {
		return "", err
	}
	defer unlock()

	book, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return "", ErrCatalogFailed.withCause(err)
	}
	if book == nil {
		return "", ErrBookNotFound
	}

	borrowed, err := s.repo.GetPatronBorrowedBooks(ctx, patronID)
	if err != nil {
		return "", ErrLoanLookupFailed.withCause(err)
	}
	found := false
	for _, loan := range borrowed {
		if loan.BookID == bookID {
			found = true
			break
		}
	}
	if !found {
		return "", ErrNotBorrowed
	}

	returnedAt := s.clock.now()
	if err := s.persistReturn(ctx, patronID, bookID, returnedAt); err != nil {
		return "", err
	}

	s.logger.Info("book returned", "patron_id", patronID, "book_id", bookID)
	return fmt.Sprintf(`Successfully returned "%s". Return date: %s.`, book.Title, formatDate(returnedAt)), nil
}

func (s *LoanService) persistReturn(ctx context.Context, patronID string, bookID int64, returnedAt time.Time) error {
	if tx, ok := s.repo.(port.LoanTransactor); ok {
		if err := tx.ReturnTx(ctx, patronID, bookID, returnedAt); err != nil {
			s.logger.Error("return transaction failed", "patron_id", patronID, "book_id", bookID, "error", err)
			return ErrReturnRecordFailed.withCause(err)
		}
		return nil
	}

	if err := s.repo.UpdateBorrowRecordReturnDate(ctx, patronID, bookID, returnedAt); err != nil {
		s.logger.Error("update return date failed", "patron_id", patronID, "book_id", bookID, "error", err)
		return ErrReturnRecordFailed.withCause(err)
	}
	if err := s.repo.UpdateBookAvailability(ctx, bookID, 1); err != nil {
		s.logger.Error("availability increment failed after return date update",
			"patron_id", patronID, "book_id", bookID, "error", err)
		return ErrAvailabilityUpdateFailed.withCause(err)
	}
	return nil
}

// lock takes every key in order and returns a func releasing all of them.
func (s *LoanService) lock(ctx context.Context, keys ...string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	release := func() {
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			if err := s.cache.ReleaseLock(releaseCtx, held[i], token); err != nil {
				s.logger.Warn("release lock failed", "key", held[i], "error", err)
			}
		}
	}

	for _, key := range keys {
		if err := s.acquire(ctx, key, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func (s *LoanService) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(lockWait)
	for {
		ok, err := s.cache.AcquireLock(ctx, key, token, lockTTL)
		if err != nil {
			s.logger.Error("acquire lock failed", "key", key, "error", err)
			return ErrBusy.withCause(err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrBusy
		}

		select {
		case <-ctx.Done():
			return ErrBusy.withCause(ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

type transactionalLibrary interface {
	port.LibraryRepository
	port.LoanTransactor
}

// runLibraryContract checks the behaviour every store must share. repo must
// start empty.
func runLibraryContract(t *testing.T, repo transactionalLibrary) {
	ctx := context.Background()
	borrowedAt := testTime()

	book := &domain.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1111111111111", TotalCopies: 2, AvailableCopies: 2}
	require.NoError(t, repo.InsertBook(ctx, book))
	require.NotZero(t, book.ID)

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, *book, *got)

		got, err = repo.GetBookByISBN(ctx, "1111111111111")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, book.ID, got.ID)

		got, err = repo.GetBookByID(ctx, book.ID+1000)
		assert.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetBookByISBN(ctx, "0000000000000")
		assert.NoError(t, err)
		assert.Nil(t, got)

		books, err := repo.GetAllBooks(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		dup := &domain.Book{Title: "Copy", Author: "Someone", ISBN: "1111111111111", TotalCopies: 1, AvailableCopies: 1}
		err := repo.InsertBook(ctx, dup)
		assert.ErrorIs(t, err, port.ErrDuplicateKey)
	})

	t.Run("availability stays in range", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateBookAvailability(ctx, book.ID, 1), port.ErrConflict)
		assert.ErrorIs(t, repo.UpdateBookAvailability(ctx, book.ID, -3), port.ErrConflict)

		require.NoError(t, repo.UpdateBookAvailability(ctx, book.ID, -1))
		require.NoError(t, repo.UpdateBookAvailability(ctx, book.ID, 1))
	})

	t.Run("borrow and return", func(t *testing.T) {
		record := domain.NewLoanRecord("000111", book.ID, borrowedAt)
		require.NoError(t, repo.BorrowTx(ctx, record))

		got, err := repo.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableCopies)

		count, err := repo.GetPatronBorrowCount(ctx, "000111")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		borrowed, err := repo.GetPatronBorrowedBooks(ctx, "000111")
		require.NoError(t, err)
		require.Len(t, borrowed, 1)
		assert.Equal(t, "Dune", borrowed[0].Title)
		assert.WithinDuration(t, record.DueDate, borrowed[0].DueDate, time.Second)
		assert.Nil(t, borrowed[0].ReturnDate)

		returnedAt := borrowedAt.Add(3 * 24 * time.Hour)
		require.NoError(t, repo.ReturnTx(ctx, "000111", book.ID, returnedAt))

		got, err = repo.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableCopies)

		borrowed, err = repo.GetPatronBorrowedBooks(ctx, "000111")
		require.NoError(t, err)
		assert.Empty(t, borrowed)

		history, err := repo.GetPatronBorrowingHistory(ctx, "000111")
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.NotNil(t, history[0].ReturnDate)
		assert.WithinDuration(t, returnedAt, *history[0].ReturnDate, time.Second)
	})

	t.Run("return without loan", func(t *testing.T) {
		err := repo.ReturnTx(ctx, "000222", book.ID, borrowedAt)
		assert.ErrorIs(t, err, port.ErrConflict)
	})

	t.Run("borrow without copies", func(t *testing.T) {
		single := &domain.Book{Title: "Emma", Author: "Jane Austen", ISBN: "2222222222222", TotalCopies: 1, AvailableCopies: 1}
		require.NoError(t, repo.InsertBook(ctx, single))
		require.NoError(t, repo.BorrowTx(ctx, domain.NewLoanRecord("000111", single.ID, borrowedAt)))

		err := repo.BorrowTx(ctx, domain.NewLoanRecord("000333", single.ID, borrowedAt))
		assert.ErrorIs(t, err, port.ErrConflict)

		count, err := repo.GetPatronBorrowCount(ctx, "000333")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("sequential writes", func(t *testing.T) {
		record := domain.NewLoanRecord("000444", book.ID, borrowedAt)
		require.NoError(t, repo.InsertBorrowRecord(ctx, record))
		require.NoError(t, repo.UpdateBookAvailability(ctx, book.ID, -1))
		require.NoError(t, repo.UpdateBorrowRecordReturnDate(ctx, "000444", book.ID, borrowedAt.Add(time.Hour)))
		require.NoError(t, repo.UpdateBookAvailability(ctx, book.ID, 1))

		err := repo.UpdateBorrowRecordReturnDate(ctx, "000444", book.ID, borrowedAt)
		assert.ErrorIs(t, err, port.ErrConflict)
	})
}

func testTime() time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
}

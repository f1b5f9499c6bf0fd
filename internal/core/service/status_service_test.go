package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusFixture() (*mockLibrary, *StatusReporter) {
	repo, calc, _ := newFeeFixture()
	return repo, NewStatusReporter(repo, calc, discardLogger())
}

func TestGetPatronStatus_SumsOverdueFees(t *testing.T) {
	repo, reporter := newStatusFixture()
	dune := repo.addBook("Dune", 1)
	emma := repo.addBook("Emma", 1)
	fresh := repo.addBook("Fresh", 1)
	repo.addLoan("000111", dune, testNow.Add(-21*day)) // 7 days overdue: 3.50
	repo.addLoan("000111", emma, testNow.Add(-29*day)) // 15 days overdue: 11.50
	repo.addLoan("000111", fresh, testNow.Add(-2*day)) // not overdue

	report, err := reporter.GetPatronStatus(context.Background(), "000111")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "000111", report.PatronID)
	assert.Equal(t, "15.00", report.TotalLateFeesOwed.StringFixed(2))
	assert.Len(t, report.CurrentlyBorrowed, 3)
	assert.Len(t, report.BorrowingHistory, 3)
	assert.Equal(t, "Dune", report.CurrentlyBorrowed[0].Title)
}

func TestGetPatronStatus_ReturnedLoansOnlyInHistory(t *testing.T) {
	repo, reporter := newStatusFixture()
	dune := repo.addBook("Dune", 1)
	emma := repo.addBook("Emma", 1)
	repo.addLoan("000111", dune, testNow.Add(-40*day))
	returned := testNow.Add(-20 * day)
	repo.loans[0].ReturnDate = &returned
	repo.addLoan("000111", emma, testNow.Add(-day))

	report, err := reporter.GetPatronStatus(context.Background(), "000111")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.CurrentlyBorrowed, 1)
	assert.Len(t, report.BorrowingHistory, 2)
	assert.True(t, report.TotalLateFeesOwed.IsZero())
}

func TestGetPatronStatus_Nil(t *testing.T) {
	repo, reporter := newStatusFixture()
	dune := repo.addBook("Dune", 1)
	repo.addLoan("222222", dune, testNow.Add(-40*day))
	returned := testNow.Add(-30 * day)
	repo.loans[0].ReturnDate = &returned

	for _, patron := range []string{"abc", "000111", "222222"} {
		report, err := reporter.GetPatronStatus(context.Background(), patron)

		assert.NoError(t, err, patron)
		assert.Nil(t, report, patron)
	}
}

func TestGetPatronStatus_StoreFailure(t *testing.T) {
	repo, reporter := newStatusFixture()
	repo.fail["GetPatronBorrowingHistory"] = errDBDown

	report, err := reporter.GetPatronStatus(context.Background(), "000111")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrLoanLookupFailed)
}

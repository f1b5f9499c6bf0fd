package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	pgUniqueViolation = "23505"
	tableBooks        = "books"
	tableLoans        = "borrow_records"
)

var (
	pg          = goqu.Dialect("postgres")
	bookColumns = []any{"id", "title", "author", "isbn", "total_copies", "available_copies"}
	loanColumns = []any{
		goqu.I("r.patron_id"), goqu.I("r.book_id"), goqu.I("b.title"),
		goqu.I("r.borrow_date"), goqu.I("r.due_date"), goqu.I("r.return_date"),
	}
)

type bookRow struct {
	ID              int64  `db:"id"`
	Title           string `db:"title"`
	Author          string `db:"author"`
	ISBN            string `db:"isbn"`
	TotalCopies     int    `db:"total_copies"`
	AvailableCopies int    `db:"available_copies"`
}

func (r bookRow) toDomain() domain.Book {
	return domain.Book{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
	}
}

type loanRow struct {
	PatronID   string       `db:"patron_id"`
	BookID     int64        `db:"book_id"`
	Title      string       `db:"title"`
	BorrowDate time.Time    `db:"borrow_date"`
	DueDate    time.Time    `db:"due_date"`
	ReturnDate sql.NullTime `db:"return_date"`
}

func (r loanRow) toDomain() domain.LoanRecord {
	l := domain.LoanRecord{
		PatronID:   r.PatronID,
		BookID:     r.BookID,
		Title:      r.Title,
		BorrowDate: r.BorrowDate,
		DueDate:    r.DueDate,
	}
	if r.ReturnDate.Valid {
		t := r.ReturnDate.Time
		l.ReturnDate = &t
	}
	return l
}

// PostgresAdapter stores the catalog and ledger in PostgreSQL. Queries are
// built with goqu and run through sqlx on the lib/pq driver.
type PostgresAdapter struct {
	db *sqlx.DB
}

func NewPostgresAdapter(db *sqlx.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (p *PostgresAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresAdapter) GetBookByID(ctx context.Context, id int64) (*domain.Book, error) {
	return p.getBook(ctx, goqu.C("id").Eq(id))
}

func (p *PostgresAdapter) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return p.getBook(ctx, goqu.C("isbn").Eq(isbn))
}

func (p *PostgresAdapter) getBook(ctx context.Context, where exp.Expression) (*domain.Book, error) {
	query, args, err := pg.From(tableBooks).Select(bookColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	var row bookRow
	err = p.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	b := row.toDomain()
	return &b, nil
}

func (p *PostgresAdapter) GetAllBooks(ctx context.Context) ([]domain.Book, error) {
	query, args, err := pg.From(tableBooks).Select(bookColumns...).Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build books query: %w", err)
	}

	var rows []bookRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	books := make([]domain.Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.toDomain())
	}
	return books, nil
}

func (p *PostgresAdapter) InsertBook(ctx context.Context, book *domain.Book) error {
	query, args, err := pg.Insert(tableBooks).
		Rows(goqu.Record{
			"title":            book.Title,
			"author":           book.Author,
			"isbn":             book.ISBN,
			"total_copies":     book.TotalCopies,
			"available_copies": book.AvailableCopies,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert book: %w", err)
	}

	if err := p.db.QueryRowxContext(ctx, query, args...).Scan(&book.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("insert book %s: %w", book.ISBN, port.ErrDuplicateKey)
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	return adjustAvailabilityPostgres(ctx, p.db, bookID, delta)
}

func adjustAvailabilityPostgres(ctx context.Context, ex sqlx.ExecerContext, bookID int64, delta int) error {
	query, args, err := pg.Update(tableBooks).
		Set(goqu.Record{"available_copies": goqu.L("available_copies + ?", delta)}).
		Where(
			goqu.C("id").Eq(bookID),
			goqu.L("available_copies + ? BETWEEN 0 AND total_copies", delta),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build availability update: %w", err)
	}

	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}
	return nil
}

func (p *PostgresAdapter) InsertBorrowRecord(ctx context.Context, record domain.LoanRecord) error {
	return insertBorrowRecordPostgres(ctx, p.db, record)
}

func insertBorrowRecordPostgres(ctx context.Context, ex sqlx.ExecerContext, record domain.LoanRecord) error {
	query, args, err := pg.Insert(tableLoans).
		Rows(goqu.Record{
			"patron_id":   record.PatronID,
			"book_id":     record.BookID,
			"borrow_date": record.BorrowDate,
			"due_date":    record.DueDate,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert borrow record: %w", err)
	}

	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert borrow record: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) UpdateBorrowRecordReturnDate(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	return closeLoanPostgres(ctx, p.db, patronID, bookID, returnDate)
}

func closeLoanPostgres(ctx context.Context, ex sqlx.ExecerContext, patronID string, bookID int64, returnDate time.Time) error {
	query, args, err := pg.Update(tableLoans).
		Set(goqu.Record{"return_date": returnDate}).
		Where(
			goqu.C("patron_id").Eq(patronID),
			goqu.C("book_id").Eq(bookID),
			goqu.C("return_date").IsNull(),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build return date update: %w", err)
	}

	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update return date: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}
	return nil
}

func (p *PostgresAdapter) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	query, args, err := pg.From(tableLoans).
		Select(goqu.COUNT("*")).
		Where(goqu.C("patron_id").Eq(patronID), goqu.C("return_date").IsNull()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := p.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count borrow records: %w", err)
	}
	return count, nil
}

func (p *PostgresAdapter) GetPatronBorrowedBooks(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return p.queryLoans(ctx, patronID, true)
}

func (p *PostgresAdapter) GetPatronBorrowingHistory(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return p.queryLoans(ctx, patronID, false)
}

func (p *PostgresAdapter) queryLoans(ctx context.Context, patronID string, outstandingOnly bool) ([]domain.LoanRecord, error) {
	ds := pg.From(goqu.T(tableLoans).As("r")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("r.book_id")))).
		Select(loanColumns...).
		Where(goqu.I("r.patron_id").Eq(patronID)).
		Order(goqu.I("r.borrow_date").Asc())
	if outstandingOnly {
		ds = ds.Where(goqu.I("r.return_date").IsNull())
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow records query: %w", err)
	}

	var rows []loanRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query borrow records: %w", err)
	}

	loans := make([]domain.LoanRecord, 0, len(rows))
	for _, r := range rows {
		loans = append(loans, r.toDomain())
	}
	return loans, nil
}

func (p *PostgresAdapter) BorrowTx(ctx context.Context, record domain.LoanRecord) error {
	return p.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertBorrowRecordPostgres(ctx, tx, record); err != nil {
			return err
		}
		return adjustAvailabilityPostgres(ctx, tx, record.BookID, -1)
	})
}

func (p *PostgresAdapter) ReturnTx(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	return p.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := closeLoanPostgres(ctx, tx, patronID, bookID, returnDate); err != nil {
			return err
		}
		return adjustAvailabilityPostgres(ctx, tx, bookID, 1)
	})
}

func (p *PostgresAdapter) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

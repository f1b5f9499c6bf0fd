package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const mysqlDuplicateEntry = 1062

const selectLoansMySQL = `
	SELECT r.patron_id, r.book_id, b.title, r.borrow_date, r.due_date, r.return_date
	FROM borrow_records r
	JOIN books b ON b.id = r.book_id
	WHERE r.patron_id = ?`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// MySQLDSN returns dsn with parseTime enabled. Loan reads scan DATETIME
// columns into time.Time and fail without it.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// OpenMySQL connects with parseTime forced on and verifies the connection.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := MySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates the tables if they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetBookByID(ctx context.Context, id int64) (*domain.Book, error) {
	return m.getBook(ctx, `
		SELECT id, title, author, isbn, total_copies, available_copies
		FROM books WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return m.getBook(ctx, `
		SELECT id, title, author, isbn, total_copies, available_copies
		FROM books WHERE isbn = ?`, isbn)
}

func (m *MySQLAdapter) getBook(ctx context.Context, query string, arg any) (*domain.Book, error) {
	var b domain.Book
	err := m.db.QueryRowContext(ctx, query, arg).
		Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.TotalCopies, &b.AvailableCopies)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	return &b, nil
}

func (m *MySQLAdapter) GetAllBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, title, author, isbn, total_copies, available_copies
		FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (m *MySQLAdapter) InsertBook(ctx context.Context, book *domain.Book) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO books (title, author, isbn, total_copies, available_copies)
		VALUES (?, ?, ?, ?, ?)`,
		book.Title, book.Author, book.ISBN, book.TotalCopies, book.AvailableCopies,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("insert book %s: %w", book.ISBN, port.ErrDuplicateKey)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("book id: %w", err)
	}
	book.ID = id
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (m *MySQLAdapter) UpdateBookAvailability(ctx context.Context, bookID int64, delta int) error {
	return adjustAvailabilityMySQL(ctx, m.db, bookID, delta)
}

// adjustAvailabilityMySQL refuses any change that would leave the counter
// outside [0, total_copies].
func adjustAvailabilityMySQL(ctx context.Context, ex execer, bookID int64, delta int) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE books
		SET available_copies = available_copies + ?
		WHERE id = ? AND available_copies + ? BETWEEN 0 AND total_copies`,
		delta, bookID, delta,
	)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}

	return nil
}

func (m *MySQLAdapter) InsertBorrowRecord(ctx context.Context, record domain.LoanRecord) error {
	return insertBorrowRecordMySQL(ctx, m.db, record)
}

func insertBorrowRecordMySQL(ctx context.Context, ex execer, record domain.LoanRecord) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO borrow_records (patron_id, book_id, borrow_date, due_date)
		VALUES (?, ?, ?, ?)`,
		record.PatronID, record.BookID, record.BorrowDate, record.DueDate,
	)
	if err != nil {
		return fmt.Errorf("insert borrow record: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateBorrowRecordReturnDate(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	return closeLoanMySQL(ctx, m.db, patronID, bookID, returnDate)
}

func closeLoanMySQL(ctx context.Context, ex execer, patronID string, bookID int64, returnDate time.Time) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE borrow_records
		SET return_date = ?
		WHERE patron_id = ? AND book_id = ? AND return_date IS NULL`,
		returnDate, patronID, bookID,
	)
	if err != nil {
		return fmt.Errorf("update return date: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrConflict
	}

	return nil
}

func (m *MySQLAdapter) GetPatronBorrowCount(ctx context.Context, patronID string) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM borrow_records
		WHERE patron_id = ? AND return_date IS NULL`, patronID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count borrow records: %w", err)
	}
	return count, nil
}

func (m *MySQLAdapter) GetPatronBorrowedBooks(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return m.queryLoans(ctx, selectLoansMySQL+` AND r.return_date IS NULL ORDER BY r.borrow_date`, patronID)
}

func (m *MySQLAdapter) GetPatronBorrowingHistory(ctx context.Context, patronID string) ([]domain.LoanRecord, error) {
	return m.queryLoans(ctx, selectLoansMySQL+` ORDER BY r.borrow_date`, patronID)
}

func (m *MySQLAdapter) queryLoans(ctx context.Context, query, patronID string) ([]domain.LoanRecord, error) {
	rows, err := m.db.QueryContext(ctx, query, patronID)
	if err != nil {
		return nil, fmt.Errorf("query borrow records: %w", err)
	}
	defer rows.Close()

	loans := []domain.LoanRecord{}
	for rows.Next() {
		var (
			l        domain.LoanRecord
			returned sql.NullTime
		)
		if err := rows.Scan(&l.PatronID, &l.BookID, &l.Title, &l.BorrowDate, &l.DueDate, &returned); err != nil {
			return nil, fmt.Errorf("scan borrow record: %w", err)
		}
		if returned.Valid {
			l.ReturnDate = &returned.Time
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// BorrowTx inserts the loan and takes a copy in one transaction.
func (m *MySQLAdapter) BorrowTx(ctx context.Context, record domain.LoanRecord) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertBorrowRecordMySQL(ctx, tx, record); err != nil {
		return err
	}
	if err := adjustAvailabilityMySQL(ctx, tx, record.BookID, -1); err != nil {
		return err
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ReturnTx(ctx context.Context, patronID string, bookID int64, returnDate time.Time) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := closeLoanMySQL(ctx, tx, patronID, bookID, returnDate); err != nil {
		return err
	}
	if err := adjustAvailabilityMySQL(ctx, tx, bookID, 1); err != nil {
		return err
	}

	return tx.Commit()
}

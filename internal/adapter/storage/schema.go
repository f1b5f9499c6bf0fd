package storage

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id               BIGINT AUTO_INCREMENT PRIMARY KEY,
		title            VARCHAR(200) NOT NULL,
		author           VARCHAR(100) NOT NULL,
		isbn             CHAR(13)     NOT NULL,
		total_copies     INT          NOT NULL,
		available_copies INT          NOT NULL,
		UNIQUE KEY ux_books_isbn (isbn),
		CHECK (total_copies > 0),
		CHECK (available_copies BETWEEN 0 AND total_copies)
	)`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		patron_id   CHAR(6)     NOT NULL,
		book_id     BIGINT      NOT NULL,
		borrow_date DATETIME(6) NOT NULL,
		due_date    DATETIME(6) NOT NULL,
		return_date DATETIME(6) NULL,
		KEY idx_borrow_records_patron (patron_id, return_date),
		CONSTRAINT fk_borrow_records_book FOREIGN KEY (book_id) REFERENCES books (id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id               BIGSERIAL PRIMARY KEY,
		title            VARCHAR(200) NOT NULL,
		author           VARCHAR(100) NOT NULL,
		isbn             CHAR(13)     NOT NULL UNIQUE,
		total_copies     INT          NOT NULL CHECK (total_copies > 0),
		available_copies INT          NOT NULL,
		CHECK (available_copies BETWEEN 0 AND total_copies)
	)`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id          BIGSERIAL PRIMARY KEY,
		patron_id   CHAR(6)     NOT NULL,
		book_id     BIGINT      NOT NULL REFERENCES books (id),
		borrow_date TIMESTAMPTZ NOT NULL,
		due_date    TIMESTAMPTZ NOT NULL,
		return_date TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_borrow_records_patron ON borrow_records (patron_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_borrow_records_outstanding
		ON borrow_records (patron_id, book_id) WHERE return_date IS NULL`,
}

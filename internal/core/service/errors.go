package service

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindPersistence
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Error is a business-rule failure. Message is shown to callers verbatim and
// must stay stable for a given Code; Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so copies made by withCause and
// withMessage still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func (e *Error) withMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrTitleRequired  = newError(KindValidation, "title_required", "Title is required.")
	ErrTitleTooLong   = newError(KindValidation, "title_too_long", "Title must be less than 200 characters.")
	ErrAuthorRequired = newError(KindValidation, "author_required", "Author is required.")
	ErrAuthorTooLong  = newError(KindValidation, "author_too_long", "Author must be less than 100 characters.")
	ErrInvalidISBN    = newError(KindValidation, "invalid_isbn", "ISBN must be exactly 13 digits.")
	ErrInvalidCopies  = newError(KindValidation, "invalid_total_copies", "Total copies must be a positive integer.")
	ErrDuplicateISBN  = newError(KindConflict, "duplicate_isbn", "A book with this ISBN already exists.")
	ErrAddBookFailed  = newError(KindPersistence, "add_book_failed", "Database error occurred while adding the book.")
	ErrCatalogFailed  = newError(KindPersistence, "catalog_failed", "Database error occurred while reading the catalog.")

	ErrInvalidPatronID          = newError(KindValidation, "invalid_patron_id", "Invalid patron ID. Must be exactly 6 digits.")
	ErrBookNotFound             = newError(KindNotFound, "book_not_found", "Book not found.")
	ErrBookUnavailable          = newError(KindConflict, "book_unavailable", "This book is currently not available.")
	ErrBorrowLimitExceeded      = newError(KindConflict, "borrow_limit_exceeded", "You have reached the maximum borrowing limit of 5 books.")
	ErrAlreadyBorrowed          = newError(KindConflict, "already_borrowed", "This book is already borrowed by you.")
	ErrNotBorrowed              = newError(KindConflict, "not_borrowed", "Book was not borrowed by this patron.")
	ErrBusy                     = newError(KindConflict, "busy", "The library is busy, please try again.")
	ErrBorrowRecordFailed       = newError(KindPersistence, "borrow_record_failed", "Database error occurred while creating borrow record.")
	ErrReturnRecordFailed       = newError(KindPersistence, "return_record_failed", "Database error occurred while updating return date.")
	ErrAvailabilityUpdateFailed = newError(KindPersistence, "availability_update_failed", "Database error occurred while updating book availability.")
	ErrLoanLookupFailed         = newError(KindPersistence, "loan_lookup_failed", "Database error occurred while reading borrow records.")

	ErrFeeUnavailable       = newError(KindPersistence, "fee_unavailable", "Unable to calculate late fees.")
	ErrNoFeeOwed            = newError(KindConflict, "no_fee_owed", "No late fees to pay for this book.")
	ErrDuplicatePayment     = newError(KindConflict, "duplicate_payment", "A payment for this late fee is already in progress or completed.")
	ErrPaymentDeclined      = newError(KindExternal, "payment_declined", "Payment failed.")
	ErrPaymentProcessing    = newError(KindExternal, "payment_processing", "Payment processing error.")
	ErrInvalidTransactionID = newError(KindValidation, "invalid_transaction_id", "Invalid transaction ID.")
	ErrRefundNotPositive    = newError(KindValidation, "refund_not_positive", "Refund amount must be greater than 0.")
	ErrRefundTooLarge       = newError(KindValidation, "refund_too_large", "Refund amount exceeds maximum late fee.")
	ErrRefundDeclined       = newError(KindExternal, "refund_declined", "Refund failed.")
	ErrRefundProcessing     = newError(KindExternal, "refund_processing", "Refund processing error.")
)

// KindOf reports the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the caller-facing text for err. Errors that did not
// originate in this package are reported generically.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
)

func doRequest(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func newTestRouter(env *testEnv) http.Handler {
	return NewHTTPHandler(env.svc, HTTPOptions{}, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()
}

func TestHTTP_HealthCheck(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestHTTP_RequestIDIsEchoed(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestHTTP_AddAndListBooks(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodPost, "/api/books",
		`{"title":"Emma","author":"Jane Austen","isbn":"2222222222222","total_copies":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, `Book "Emma" has been successfully added to the catalog.`, body["message"])

	rec, body = doRequest(t, h, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	books := body["books"].([]any)
	require.Len(t, books, 2)
	assert.Equal(t, "Emma", books[1].(map[string]any)["title"])
	assert.Equal(t, float64(2), books[1].(map[string]any)["available_copies"])
}

func TestHTTP_AddBookErrors(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"duplicate isbn", `{"title":"Dune","author":"Frank Herbert","isbn":"1111111111111","total_copies":1}`, http.StatusConflict, "A book with this ISBN already exists."},
		{"missing title", `{"title":"","author":"A","isbn":"3333333333333","total_copies":1}`, http.StatusBadRequest, "Title is required."},
		{"short isbn", `{"title":"T","author":"A","isbn":"123","total_copies":1}`, http.StatusBadRequest, "ISBN must be exactly 13 digits."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, h, http.MethodPost, "/api/books", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}

	rec, body := doRequest(t, h, http.MethodPost, "/api/books", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "error")
}

func TestHTTP_ShowBook(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodGet, "/api/book/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", body["book"].(map[string]any)["title"])

	rec, _ = doRequest(t, h, http.MethodGet, "/api/book/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, h, http.MethodGet, "/api/book/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_SearchBooks(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodGet, "/api/search?q=dUNe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["books"], 1)
	assert.Equal(t, "dUNe", body["search_term"])
	assert.Equal(t, "title", body["search_type"])
	assert.Equal(t, float64(1), body["count"])

	rec, body = doRequest(t, h, http.MethodGet, "/api/search?q=herbert&type=author", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["books"], 1)
	assert.Equal(t, "author", body["search_type"])

	rec, body = doRequest(t, h, http.MethodGet, "/api/search?q=dune&type=publisher", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["books"], 0)
	assert.Equal(t, float64(0), body["count"])

	rec, _ = doRequest(t, h, http.MethodGet, "/api/search?q=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_LendingFlow(t *testing.T) {
	env := newTestEnv(t)
	h := newTestRouter(env)

	rec, body := doRequest(t, h, http.MethodPost, "/api/borrow", `{"patron_id":"000111","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `Successfully borrowed "Dune". Due date: 2025-03-15.`, body["message"])

	rec, body = doRequest(t, h, http.MethodPost, "/api/borrow", `{"patron_id":"000111","book_id":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This book is already borrowed by you.", body["message"])

	// 7 days past the due date
	env.advance(21 * 24 * time.Hour)

	rec, body = doRequest(t, h, http.MethodGet, "/api/late_fee/000111/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.5, body["fee_amount"])
	assert.Equal(t, float64(7), body["days_overdue"])
	assert.Equal(t, domain.FeeStatusOverdue, body["status"])

	rec, body = doRequest(t, h, http.MethodGet, "/api/patrons/000111/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := body["status"].(map[string]any)
	assert.Equal(t, 3.5, status["total_late_fees_owed"])
	assert.Len(t, status["currently_borrowed"], 1)

	rec, body = doRequest(t, h, http.MethodPost, "/api/payments", `{"patron_id":"000111","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment successful! Payment of $3.50 processed successfully", body["message"])
	txnID, _ := body["transaction_id"].(string)
	assert.True(t, strings.HasPrefix(txnID, "txn_000111_"))

	rec, body = doRequest(t, h, http.MethodPost, "/api/payments", `{"patron_id":"000111","book_id":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = doRequest(t, h, http.MethodPost, "/api/refunds", `{"transaction_id":"`+txnID+`","amount":3.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["message"], "Refund of $3.50 processed successfully")

	rec, body = doRequest(t, h, http.MethodPost, "/api/return", `{"patron_id":"000111","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `Successfully returned "Dune". Return date: 2025-03-22.`, body["message"])
}

func TestHTTP_OperationErrors(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	tests := []struct {
		name    string
		target  string
		body    string
		status  int
		message string
	}{
		{"invalid patron", "/api/borrow", `{"patron_id":"12345","book_id":1}`, http.StatusBadRequest, "Invalid patron ID. Must be exactly 6 digits."},
		{"unknown book", "/api/borrow", `{"patron_id":"123456","book_id":42}`, http.StatusNotFound, "Book not found."},
		{"not borrowed", "/api/return", `{"patron_id":"123456","book_id":1}`, http.StatusConflict, "Book was not borrowed by this patron."},
		{"no fee owed", "/api/payments", `{"patron_id":"123456","book_id":1}`, http.StatusConflict, "No late fees to pay for this book."},
		{"bad transaction", "/api/refunds", `{"transaction_id":"abc","amount":1}`, http.StatusBadRequest, "Invalid transaction ID."},
		{"refund too large", "/api/refunds", `{"transaction_id":"txn_1","amount":"15.01"}`, http.StatusBadRequest, "Refund amount exceeds maximum late fee."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestHTTP_PatronStatusNotFound(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/patrons/123456/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, h, http.MethodGet, "/api/patrons/abc/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubQuoter struct {
	quote domain.FeeQuote
}

func (s stubQuoter) ComputeFee(ctx context.Context, patronID string, bookID int64) domain.FeeQuote {
	return s.quote
}

func TestHTTP_LateFeeNotImplemented(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Fees = stubQuoter{quote: domain.FeeQuote{Status: "Late fee calculation not implemented"}}
	h := newTestRouter(env)

	rec, body := doRequest(t, h, http.MethodGet, "/api/late_fee/123456/1", "")

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Nil(t, body["days_overdue"])
	assert.Equal(t, float64(0), body["fee_amount"])
}

func TestHTTP_LateFeeWithoutLoan(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodGet, "/api/late_fee/123456/1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Borrow record not found.", body["status"])
	assert.Nil(t, body["days_overdue"])
}

func TestHTTP_LateFeeNonIntegerBookID(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/late_fee/123456/abc", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(newTestEnv(t))

	rec, body := doRequest(t, h, http.MethodDelete, "/api/books", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, body["error"], "DELETE")
}

func TestHTTP_RecoverPanic(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Catalog = nil
	h := newTestRouter(env)

	rec, body := doRequest(t, h, http.MethodGet, "/api/books", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Contains(t, body, "error")
}

func TestHTTP_RateLimit(t *testing.T) {
	env := newTestEnv(t)
	h := NewHTTPHandler(env.svc, HTTPOptions{RateLimit: 1, Burst: 2}, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

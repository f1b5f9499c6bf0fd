package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

// Services groups the lending operations served over HTTP and gRPC.
type Services struct {
	Catalog  *service.CatalogService
	Loans    *service.LoanService
	Fees     service.FeeQuoter
	Status   *service.StatusReporter
	Payments *service.PaymentProcessor
}

type HTTPOptions struct {
	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64
	Burst     int
}

type HTTPHandler struct {
	svc    Services
	opts   HTTPOptions
	logger *slog.Logger
}

func NewHTTPHandler(svc Services, opts HTTPOptions, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &HTTPHandler{svc: svc, opts: opts, logger: logger}
}

// Routes returns the router wrapped in middleware, outermost first:
// recoverPanic, requestID, logRequests, rateLimit.
func (h *HTTPHandler) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/health", h.HealthCheck)
	router.HandlerFunc(http.MethodGet, "/api/books", h.listBooks)
	router.HandlerFunc(http.MethodPost, "/api/books", h.addBook)
	router.HandlerFunc(http.MethodGet, "/api/book/:id", h.showBook)
	router.HandlerFunc(http.MethodGet, "/api/search", h.searchBooks)
	router.HandlerFunc(http.MethodPost, "/api/borrow", h.borrowBook)
	router.HandlerFunc(http.MethodPost, "/api/return", h.returnBook)
	router.HandlerFunc(http.MethodGet, "/api/late_fee/:patron_id/:book_id", h.lateFee)
	router.HandlerFunc(http.MethodGet, "/api/patrons/:patron_id/status", h.patronStatus)
	router.HandlerFunc(http.MethodPost, "/api/payments", h.payLateFees)
	router.HandlerFunc(http.MethodPost, "/api/refunds", h.refund)

	return h.recoverPanic(h.requestID(h.logRequests(h.rateLimit(router))))
}

type bookResponse struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}
}

func toBookResponses(books []domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

type loanResponse struct {
	BookID     int64   `json:"book_id"`
	Title      string  `json:"title"`
	BorrowDate string  `json:"borrow_date"`
	DueDate    string  `json:"due_date"`
	ReturnDate *string `json:"return_date"`
}

func toLoanResponses(loans []domain.LoanRecord) []loanResponse {
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		lr := loanResponse{
			BookID:     l.BookID,
			Title:      l.Title,
			BorrowDate: l.BorrowDate.Format(time.DateOnly),
			DueDate:    l.DueDate.Format(time.DateOnly),
		}
		if l.ReturnDate != nil {
			rd := l.ReturnDate.Format(time.DateOnly)
			lr.ReturnDate = &rd
		}
		out = append(out, lr)
	}
	return out
}

func money(d decimal.Decimal) jsoniter.Number {
	return jsoniter.Number(d.StringFixed(2))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.Catalog.ListBooks(r.Context())
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"books": toBookResponses(books)})
}

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

func (h *HTTPHandler) addBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	msg, err := h.svc.Catalog.AddBook(r.Context(), req.Title, req.Author, req.ISBN, req.TotalCopies)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, operationResponse{Success: true, Message: msg})
}

func (h *HTTPHandler) showBook(w http.ResponseWriter, r *http.Request) {
	id, err := readInt64Param(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}

	book, err := h.svc.Catalog.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			h.notFoundResponse(w, r)
			return
		}
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"book": toBookResponse(book)})
}

func (h *HTTPHandler) searchBooks(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	term := strings.TrimSpace(qs.Get("q"))
	if term == "" {
		h.badRequestResponse(w, r, errors.New("search term must not be empty"))
		return
	}
	searchType := qs.Get("type")
	if searchType == "" {
		searchType = string(domain.SearchByTitle)
	}

	books, err := h.svc.Catalog.SearchBooks(r.Context(), term, domain.SearchType(searchType))
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"search_term": term,
		"search_type": searchType,
		"books":       toBookResponses(books),
		"count":       len(books),
	})
}

type loanRequest struct {
	PatronID string `json:"patron_id"`
	BookID   int64  `json:"book_id"`
}

func (h *HTTPHandler) borrowBook(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	msg, err := h.svc.Loans.BorrowBook(r.Context(), req.PatronID, req.BookID)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: msg})
}

func (h *HTTPHandler) returnBook(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	msg, err := h.svc.Loans.ReturnBook(r.Context(), req.PatronID, req.BookID)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: msg})
}

type feeResponse struct {
	FeeAmount   jsoniter.Number `json:"fee_amount"`
	DaysOverdue *int            `json:"days_overdue"`
	Status      string          `json:"status"`
}

func (h *HTTPHandler) lateFee(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	bookID, err := readInt64Param(r, "book_id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}

	quote := h.svc.Fees.ComputeFee(r.Context(), params.ByName("patron_id"), bookID)

	status := http.StatusOK
	if strings.Contains(strings.ToLower(quote.Status), "not implemented") {
		status = http.StatusNotImplemented
	}
	writeJSON(w, status, feeResponse{
		FeeAmount:   money(quote.FeeAmount),
		DaysOverdue: quote.DaysOverdue,
		Status:      quote.Status,
	})
}

type patronStatusResponse struct {
	PatronID          string          `json:"patron_id"`
	CurrentlyBorrowed []loanResponse  `json:"currently_borrowed"`
	TotalLateFeesOwed jsoniter.Number `json:"total_late_fees_owed"`
	BorrowingHistory  []loanResponse  `json:"borrowing_history"`
}

func (h *HTTPHandler) patronStatus(w http.ResponseWriter, r *http.Request) {
	patronID := httprouter.ParamsFromContext(r.Context()).ByName("patron_id")

	report, err := h.svc.Status.GetPatronStatus(r.Context(), patronID)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	if report == nil {
		h.notFoundResponse(w, r)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": patronStatusResponse{
		PatronID:          report.PatronID,
		CurrentlyBorrowed: toLoanResponses(report.CurrentlyBorrowed),
		TotalLateFeesOwed: money(report.TotalLateFeesOwed),
		BorrowingHistory:  toLoanResponses(report.BorrowingHistory),
	}})
}

func (h *HTTPHandler) payLateFees(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	receipt, err := h.svc.Payments.PayLateFees(r.Context(), req.PatronID, req.BookID)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{
		Success:       true,
		Message:       receipt.Message,
		TransactionID: receipt.TransactionID,
	})
}

type refundRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

func (h *HTTPHandler) refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := readJSON(w, r, &req); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	msg, err := h.svc.Payments.RefundLateFeePayment(r.Context(), req.TransactionID, req.Amount)
	if err != nil {
		h.operationFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Success: true, Message: msg})
}

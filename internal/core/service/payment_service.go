package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/domain"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

const (
	paymentKeyPrefix = "payment:"
	paymentKeyTTL    = 24 * time.Hour
)

type PaymentProcessor struct {
	fees    FeeQuoter
	books   port.BookRepository
	gateway port.PaymentGateway
	cache   port.CacheRepository
	logger  *slog.Logger
}

// NewPaymentProcessor builds the payment processor. cache may be nil, which
// disables the duplicate payment guard.
func NewPaymentProcessor(fees FeeQuoter, books port.BookRepository, gateway port.PaymentGateway, cache port.CacheRepository, logger *slog.Logger) *PaymentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentProcessor{
		fees:    fees,
		books:   books,
		gateway: gateway,
		cache:   cache,
		logger:  logger,
	}
}

// PayLateFees charges the late fee owed on one loan. The gateway is only
// reached once every local check has passed, and its failures are always
// returned as *Error values.
func (p *PaymentProcessor) PayLateFees(ctx context.Context, patronID string, bookID int64) (domain.PaymentReceipt, error) {
	if !validPatronID(patronID) {
		return domain.PaymentReceipt{}, ErrInvalidPatronID
	}

	quote := p.fees.ComputeFee(ctx, patronID, bookID)
	if !quote.FeeAmount.IsPositive() {
		return domain.PaymentReceipt{}, ErrNoFeeOwed
	}

	book, err := p.books.GetBookByID(ctx, bookID)
	if err != nil {
		return domain.PaymentReceipt{}, ErrCatalogFailed.withCause(err)
	}
	if book == nil {
		return domain.PaymentReceipt{}, ErrBookNotFound
	}

	key := paymentKey(patronID, bookID, quote.DueDate)
	if p.cache != nil {
		ok, err := p.cache.SetIdempotency(ctx, key, paymentKeyTTL)
		if err != nil {
			p.logger.Error("payment idempotency check failed", "patron_id", patronID, "book_id", bookID, "error", err)
			return domain.PaymentReceipt{}, ErrPaymentProcessing.withCause(err)
		}
		if !ok {
			return domain.PaymentReceipt{}, ErrDuplicatePayment
		}
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	charge, err := p.charge(ctx, patronID, quote.FeeAmount, description)
	if err != nil {
		p.release(ctx, key)
		p.logger.Error("payment gateway error", "patron_id", patronID, "book_id", bookID, "error", err)
		return domain.PaymentReceipt{}, ErrPaymentProcessing.
			withMessage("Payment processing error: " + err.Error()).
			withCause(err)
	}
	if !charge.Accepted {
		p.release(ctx, key)
		p.logger.Warn("payment declined", "patron_id", patronID, "book_id", bookID, "reason", charge.Message)
		return domain.PaymentReceipt{}, ErrPaymentDeclined.withMessage("Payment failed: " + charge.Message)
	}

	p.logger.Info("late fee paid", "patron_id", patronID, "book_id", bookID,
		"amount", quote.FeeAmount.StringFixed(2), "transaction_id", charge.TransactionID)
	return domain.PaymentReceipt{
		TransactionID: charge.TransactionID,
		Message:       "Payment successful! " + charge.Message,
	}, nil
}

// RefundLateFeePayment reverses a late fee payment. Only gateway transaction
// ids and amounts in (0, MaxLateFee] are accepted.
func (p *PaymentProcessor) RefundLateFeePayment(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	if !strings.HasPrefix(transactionID, domain.TransactionIDPrefix) {
		return "", ErrInvalidTransactionID
	}
	if !amount.IsPositive() {
		return "", ErrRefundNotPositive
	}
	if amount.GreaterThan(domain.MaxLateFee) {
		return "", ErrRefundTooLarge
	}

	res, err := p.refund(ctx, transactionID, amount)
	if err != nil {
		p.logger.Error("refund gateway error", "transaction_id", transactionID, "error", err)
		return "", ErrRefundProcessing.
			withMessage("Refund processing error: " + err.Error()).
			withCause(err)
	}
	if !res.Accepted {
		p.logger.Warn("refund declined", "transaction_id", transactionID, "reason", res.Message)
		return "", ErrRefundDeclined.withMessage("Refund failed: " + res.Message)
	}

	p.logger.Info("late fee refunded", "transaction_id", transactionID, "amount", amount.StringFixed(2))
	return res.Message, nil
}

func (p *PaymentProcessor) charge(ctx context.Context, patronID string, amount decimal.Decimal, description string) (res port.ChargeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return p.gateway.ProcessPayment(ctx, patronID, amount, description)
}

func (p *PaymentProcessor) refund(ctx context.Context, transactionID string, amount decimal.Decimal) (res port.RefundResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return p.gateway.RefundPayment(ctx, transactionID, amount)
}

func (p *PaymentProcessor) release(ctx context.Context, key string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.ClearIdempotency(context.WithoutCancel(ctx), key); err != nil {
		p.logger.Warn("clear payment key failed", "key", key, "error", err)
	}
}

// paymentKey scopes the duplicate guard to one loan. The due date is fixed
// for the life of a loan, so the key does not move as days overdue accrue.
func paymentKey(patronID string, bookID int64, dueDate time.Time) string {
	return paymentKeyPrefix + patronID + ":" + strconv.FormatInt(bookID, 10) + ":" + strconv.FormatInt(dueDate.Unix(), 10)
}

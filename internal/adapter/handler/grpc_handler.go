package handler

import (
	"context"
	"log/slog"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

// GRPCHandler serves lending.Lending. Business failures are reported in the
// reply body; a gRPC error means the call itself could not be handled.
type GRPCHandler struct {
	svc    Services
	logger *slog.Logger
}

func NewGRPCHandler(svc Services, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{svc: svc, logger: logger}
}

func (h *GRPCHandler) BorrowBook(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	msg, err := h.svc.Loans.BorrowBook(ctx, req.PatronID, req.BookID)
	if err != nil {
		return h.failed("BorrowBook", err), nil
	}
	return &OperationReply{Success: true, Message: msg}, nil
}

func (h *GRPCHandler) ReturnBook(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	msg, err := h.svc.Loans.ReturnBook(ctx, req.PatronID, req.BookID)
	if err != nil {
		return h.failed("ReturnBook", err), nil
	}
	return &OperationReply{Success: true, Message: msg}, nil
}

func (h *GRPCHandler) ComputeFee(ctx context.Context, req *LoanRequest) (*FeeReply, error) {
	quote := h.svc.Fees.ComputeFee(ctx, req.PatronID, req.BookID)
	return &FeeReply{
		FeeAmount:   quote.FeeAmount.StringFixed(2),
		DaysOverdue: quote.DaysOverdue,
		Status:      quote.Status,
	}, nil
}

func (h *GRPCHandler) PayLateFees(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	receipt, err := h.svc.Payments.PayLateFees(ctx, req.PatronID, req.BookID)
	if err != nil {
		return h.failed("PayLateFees", err), nil
	}
	return &OperationReply{Success: true, Message: receipt.Message, TransactionID: receipt.TransactionID}, nil
}

func (h *GRPCHandler) failed(method string, err error) *OperationReply {
	if kind := service.KindOf(err); kind == service.KindPersistence || kind == 0 {
		h.logger.Error("grpc call failed", "method", method, "error", err)
	}
	return &OperationReply{Success: false, Message: service.Message(err)}
}

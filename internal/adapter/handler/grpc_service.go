package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/rpcjson"
)

const (
	lendingServiceName   = "lending.Lending"
	lendingBorrowMethod  = "/lending.Lending/BorrowBook"
	lendingReturnMethod  = "/lending.Lending/ReturnBook"
	lendingFeeMethod     = "/lending.Lending/ComputeFee"
	lendingPayFeesMethod = "/lending.Lending/PayLateFees"
)

type LoanRequest struct {
	PatronID string `json:"patron_id"`
	BookID   int64  `json:"book_id"`
}

type OperationReply struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type FeeReply struct {
	FeeAmount   string `json:"fee_amount"`
	DaysOverdue *int   `json:"days_overdue"`
	Status      string `json:"status"`
}

// LendingServer is the server side of the lending.Lending service.
type LendingServer interface {
	BorrowBook(ctx context.Context, req *LoanRequest) (*OperationReply, error)
	ReturnBook(ctx context.Context, req *LoanRequest) (*OperationReply, error)
	ComputeFee(ctx context.Context, req *LoanRequest) (*FeeReply, error)
	PayLateFees(ctx context.Context, req *LoanRequest) (*OperationReply, error)
}

func RegisterLendingServer(s grpc.ServiceRegistrar, srv LendingServer) {
	s.RegisterService(&lendingServiceDesc, srv)
}

var lendingServiceDesc = grpc.ServiceDesc{
	ServiceName: lendingServiceName,
	HandlerType: (*LendingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BorrowBook", Handler: unaryHandler(lendingBorrowMethod, LendingServer.BorrowBook)},
		{MethodName: "ReturnBook", Handler: unaryHandler(lendingReturnMethod, LendingServer.ReturnBook)},
		{MethodName: "ComputeFee", Handler: unaryHandler(lendingFeeMethod, LendingServer.ComputeFee)},
		{MethodName: "PayLateFees", Handler: unaryHandler(lendingPayFeesMethod, LendingServer.PayLateFees)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lending/lending",
}

// unaryHandler adapts a LendingServer method taking a LoanRequest into a
// grpc.MethodHandler.
func unaryHandler[R any](fullMethod string, call func(LendingServer, context.Context, *LoanRequest) (R, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(LoanRequest)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LendingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LendingServer), ctx, req.(*LoanRequest))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LendingClient calls a remote lending.Lending service.
type LendingClient struct {
	conn grpc.ClientConnInterface
}

func NewLendingClient(conn grpc.ClientConnInterface) *LendingClient {
	return &LendingClient{conn: conn}
}

func (c *LendingClient) BorrowBook(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	out := new(OperationReply)
	if err := c.conn.Invoke(ctx, lendingBorrowMethod, req, out, rpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LendingClient) ReturnBook(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	out := new(OperationReply)
	if err := c.conn.Invoke(ctx, lendingReturnMethod, req, out, rpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LendingClient) ComputeFee(ctx context.Context, req *LoanRequest) (*FeeReply, error) {
	out := new(FeeReply)
	if err := c.conn.Invoke(ctx, lendingFeeMethod, req, out, rpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LendingClient) PayLateFees(ctx context.Context, req *LoanRequest) (*OperationReply, error) {
	out := new(OperationReply)
	if err := c.conn.Invoke(ctx, lendingPayFeesMethod, req, out, rpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

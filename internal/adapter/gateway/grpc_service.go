package gateway

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const (
	gatewayServiceName          = "payment.Gateway"
	gatewayProcessPaymentMethod = "/payment.Gateway/ProcessPayment"
	gatewayRefundPaymentMethod  = "/payment.Gateway/RefundPayment"
)

type ChargeRequest struct {
	PatronID    string          `json:"patron_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type ChargeReply struct {
	Accepted      bool   `json:"accepted"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message"`
}

type RefundRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type RefundReply struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// GatewayServer is the server side of the payment.Gateway service.
type GatewayServer interface {
	ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeReply, error)
	RefundPayment(ctx context.Context, req *RefundRequest) (*RefundReply, error)
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&gatewayServiceDesc, srv)
}

var gatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: gatewayServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessPayment", Handler: processPaymentHandler},
		{MethodName: "RefundPayment", Handler: refundPaymentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payment/gateway",
}

func processPaymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChargeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServer).ProcessPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: gatewayProcessPaymentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GatewayServer).ProcessPayment(ctx, req.(*ChargeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func refundPaymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RefundRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GatewayServer).RefundPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: gatewayRefundPaymentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GatewayServer).RefundPayment(ctx, req.(*RefundRequest))
	}
	return interceptor(ctx, in, info, handler)
}

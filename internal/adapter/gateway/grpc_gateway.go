package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/rpcjson"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

// GRPCGateway forwards charges and refunds to a remote payment.Gateway
// service. Each call is a single attempt.
type GRPCGateway struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

func NewGRPCGateway(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCGateway {
	return &GRPCGateway{conn: conn, timeout: timeout}
}

// Dial opens a plaintext client connection to a payment gateway.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(addr, opts...)
}

func (g *GRPCGateway) ProcessPayment(ctx context.Context, patronID string, amount decimal.Decimal, description string) (port.ChargeResult, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	req := &ChargeRequest{PatronID: patronID, Amount: amount, Description: description}
	var reply ChargeReply
	if err := g.conn.Invoke(ctx, gatewayProcessPaymentMethod, req, &reply, rpcjson.CallOption()); err != nil {
		return port.ChargeResult{}, fmt.Errorf("process payment: %w", err)
	}

	return port.ChargeResult{
		Accepted:      reply.Accepted,
		TransactionID: reply.TransactionID,
		Message:       reply.Message,
	}, nil
}

func (g *GRPCGateway) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal) (port.RefundResult, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	req := &RefundRequest{TransactionID: transactionID, Amount: amount}
	var reply RefundReply
	if err := g.conn.Invoke(ctx, gatewayRefundPaymentMethod, req, &reply, rpcjson.CallOption()); err != nil {
		return port.RefundResult{}, fmt.Errorf("refund payment: %w", err)
	}

	return port.RefundResult{Accepted: reply.Accepted, Message: reply.Message}, nil
}

func (g *GRPCGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Server exposes any port.PaymentGateway as a payment.Gateway service.
type Server struct {
	gateway port.PaymentGateway
}

func NewServer(gateway port.PaymentGateway) *Server {
	return &Server{gateway: gateway}
}

func (s *Server) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeReply, error) {
	res, err := s.gateway.ProcessPayment(ctx, req.PatronID, req.Amount, req.Description)
	if err != nil {
		return nil, err
	}
	return &ChargeReply{Accepted: res.Accepted, TransactionID: res.TransactionID, Message: res.Message}, nil
}

func (s *Server) RefundPayment(ctx context.Context, req *RefundRequest) (*RefundReply, error) {
	res, err := s.gateway.RefundPayment(ctx, req.TransactionID, req.Amount)
	if err != nil {
		return nil, err
	}
	return &RefundReply{Accepted: res.Accepted, Message: res.Message}, nil
}

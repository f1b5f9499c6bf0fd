package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/gateway"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/adapter/storage"
	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

type testEnv struct {
	repo *storage.MemoryAdapter
	now  time.Time
	svc  Services
}

// advance moves the services' clock forward.
func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		repo: storage.NewMemoryAdapter(),
		now:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := service.Clock(func() time.Time { return env.now })
	cache := storage.NewMemoryCache()

	fees := service.NewFeeCalculator(env.repo, clock, logger)
	env.svc = Services{
		Catalog:  service.NewCatalogService(env.repo, logger),
		Loans:    service.NewLoanService(env.repo, cache, clock, logger),
		Fees:     fees,
		Status:   service.NewStatusReporter(env.repo, fees, logger),
		Payments: service.NewPaymentProcessor(fees, env.repo, gateway.NewSimulated(), cache, logger),
	}

	_, err := env.svc.Catalog.AddBook(context.Background(), "Dune", "Frank Herbert", "1111111111111", 3)
	require.NoError(t, err)
	return env
}

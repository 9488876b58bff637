package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/simaogato/billlink-backend/internal/domain"
)

// MockBillRepository is a mock implementation of BillRepository for testing
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) List(ctx context.Context) ([]*domain.Bill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// sleepRecorder records every wait instead of sleeping
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// noSleep returns immediately regardless of ctx
func noSleep(context.Context, time.Duration) error { return nil }

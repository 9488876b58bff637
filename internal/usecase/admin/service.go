package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/billlink-backend/internal/domain"
)

// CreateBillInput represents the input for creating a bill
type CreateBillInput struct {
	CustomerName string
	Amount       decimal.Decimal
	DueDate      *time.Time // Optional
	Lender       string     // Optional: defaults to domain.DefaultLender
}

// AdminService handles administrative bill operations.
// It is not used by the customer wizard.
type AdminService struct {
	BillRepo domain.BillRepository
	now      func() time.Time
}

// NewAdminService creates a new AdminService instance
func NewAdminService(billRepo domain.BillRepository) *AdminService {
	return &AdminService{
		BillRepo: billRepo,
		now:      time.Now,
	}
}

// CreateBill creates a bill under a freshly generated identifier.
// The identifier is the link capability handed to the customer.
func (s *AdminService) CreateBill(ctx context.Context, input CreateBillInput) (*domain.Bill, error) {
	if input.Amount.IsNegative() {
		return nil, errors.New("invalid amount: must not be negative")
	}

	bill := &domain.Bill{
		ID:        uuid.New().String(),
		Amount:    input.Amount,
		DueDate:   input.DueDate,
		CreatedAt: s.now().UTC(),
	}

	if name := strings.TrimSpace(input.CustomerName); name != "" {
		bill.CustomerName = &name
	}

	lender := strings.TrimSpace(input.Lender)
	if lender == "" {
		lender = domain.DefaultLender
	}
	bill.Lender = &lender

	if err := bill.Validate(); err != nil {
		return nil, err
	}

	if err := s.BillRepo.Create(ctx, bill); err != nil {
		return nil, err
	}

	return bill, nil
}

// GetBill retrieves a bill without retries
func (s *AdminService) GetBill(ctx context.Context, id string) (*domain.Bill, error) {
	if err := domain.ValidateIdentifier(id); err != nil {
		return nil, err
	}
	return s.BillRepo.GetByID(ctx, id)
}

// ListBills lists every bill, newest first
func (s *AdminService) ListBills(ctx context.Context) ([]*domain.Bill, error) {
	bills, err := s.BillRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

// DeleteBill removes a bill
func (s *AdminService) DeleteBill(ctx context.Context, id string) error {
	if err := domain.ValidateIdentifier(id); err != nil {
		return err
	}
	return s.BillRepo.Delete(ctx, id)
}

package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/billlink-backend/internal/domain"
)

// DemoBillID is the fixed identifier of the demo bill (its link is /customer/<DemoBillID>)
const DemoBillID = "ea13618a-7738-4d9e-8ff6-e159f0809cc2"

// DemoBill returns the bill seeded for demos and end-to-end checks
func DemoBill() *domain.Bill {
	due := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	name := "ลูกค้าทดสอบ"
	lender := domain.DefaultLender
	return &domain.Bill{
		ID:           DemoBillID,
		CustomerName: &name,
		Amount:       decimal.NewFromInt(15000),
		DueDate:      &due,
		Lender:       &lender,
	}
}

// DemoSeeder ensures the demo bill exists
type DemoSeeder struct {
	repo domain.BillRepository
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(repo domain.BillRepository) *DemoSeeder {
	return &DemoSeeder{
		repo: repo,
	}
}

// Seed creates the demo bill if it doesn't exist.
// Reports whether a bill was created.
func (s *DemoSeeder) Seed(ctx context.Context) (bool, error) {
	_, err := s.repo.GetByID(ctx, DemoBillID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrBillNotFound) {
		return false, err
	}

	bill := DemoBill()
	if err := bill.Validate(); err != nil {
		return false, err
	}

	if err := s.repo.Create(ctx, bill); err != nil {
		return false, err
	}

	return true, nil
}

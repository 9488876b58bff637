package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLender is the source label given to bills created without one
const DefaultLender = "Lend Pro"

// Placeholder is rendered in place of any absent optional bill field
const Placeholder = "-"

var (
	// ErrBillNotFound is returned by repositories when no bill matches an identifier.
	// It is terminal for retrieval: a lookup that yields it is never retried.
	ErrBillNotFound = errors.New("bill not found")
)

// Bill represents a customer-facing bill looked up by its opaque identifier
type Bill struct {
	ID           string
	CustomerName *string
	Amount       decimal.Decimal // Always present, never negative
	DueDate      *time.Time      // Date only; NULL when the bill has no due date
	Lender       *string
	CreatedAt    time.Time
}

// Validate ensures the bill adheres to domain rules
func (b *Bill) Validate() error {
	if err := ValidateIdentifier(b.ID); err != nil {
		return err
	}

	if b.Amount.IsNegative() {
		return errors.New("bill amount must not be negative")
	}

	return nil
}

// DisplayName returns the customer name or the placeholder
func (b *Bill) DisplayName() string {
	if b.CustomerName == nil || *b.CustomerName == "" {
		return Placeholder
	}
	return *b.CustomerName
}

// DisplayLender returns the lender label or the placeholder
func (b *Bill) DisplayLender() string {
	if b.Lender == nil || *b.Lender == "" {
		return Placeholder
	}
	return *b.Lender
}

package domain

import (
	"context"
)

// BillRepository defines the interface for bill persistence operations
type BillRepository interface {
	// GetByID retrieves a bill by its identifier.
	// Returns an error wrapping ErrBillNotFound when no row matches; any other
	// error is a transient failure of the lookup itself.
	GetByID(ctx context.Context, id string) (*Bill, error)

	// Create creates a new bill
	Create(ctx context.Context, bill *Bill) error

	// List retrieves all bills, newest first
	List(ctx context.Context) ([]*Bill, error)

	// Delete removes a bill by its identifier.
	// Returns an error wrapping ErrBillNotFound when no row matches.
	Delete(ctx context.Context, id string) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/billlink-backend/internal/domain"
)

const billColumns = `id, customer_name, amount, due_date, lender, created_at`

// billRepository implements domain.BillRepository
type billRepository struct {
	db *DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *DB) domain.BillRepository {
	return &billRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	var bill domain.Bill
	var customerName, lender sql.NullString
	var dueDate sql.NullTime
	var amountStr string

	if err := row.Scan(
		&bill.ID,
		&customerName,
		&amountStr,
		&dueDate,
		&lender,
		&bill.CreatedAt,
	); err != nil {
		return nil, err
	}

	if customerName.Valid {
		bill.CustomerName = &customerName.String
	}
	if lender.Valid {
		bill.Lender = &lender.String
	}
	if dueDate.Valid {
		d := dueDate.Time
		bill.DueDate = &d
	}

	// Parse amount (NUMERIC)
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	bill.Amount = amount

	return &bill, nil
}

// GetByID retrieves a bill by its identifier
func (r *billRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	bill, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", id, domain.ErrBillNotFound)
		}
		return nil, fmt.Errorf("failed to get bill by ID: %w", err)
	}

	return bill, nil
}

// Create creates a new bill. CreatedAt is set by the database when zero.
func (r *billRepository) Create(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (id, customer_name, amount, due_date, lender, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING created_at
	`

	var dueDate interface{}
	if bill.DueDate != nil {
		dueDate = bill.DueDate.Format(time.DateOnly)
	}
	var createdAt interface{}
	if !bill.CreatedAt.IsZero() {
		createdAt = bill.CreatedAt
	}

	err := r.db.QueryRowContext(ctx, query,
		bill.ID,
		nullableString(bill.CustomerName),
		bill.Amount.String(),
		dueDate,
		nullableString(bill.Lender),
		createdAt,
	).Scan(&bill.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	return nil
}

// List retrieves all bills, newest first
func (r *billRepository) List(ctx context.Context) ([]*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := make([]*domain.Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

// Delete removes a bill by its identifier
func (r *billRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bill %s: %w", id, domain.ErrBillNotFound)
	}

	return nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

package admin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// BillRow is one line of a bill import file
type BillRow struct {
	CustomerName string `csv:"customer_name"`
	Amount       string `csv:"amount"`
	DueDate      string `csv:"due_date"` // YYYY-MM-DD, may be empty
	Lender       string `csv:"lender"`
}

// ImportedBill pairs an input row with the identifier it was created under
type ImportedBill struct {
	Line int
	ID   string
}

// ImportBills creates one bill per CSV row.
// All rows are parsed before anything is created; a malformed row aborts the import.
func (s *AdminService) ImportBills(ctx context.Context, r io.Reader) ([]ImportedBill, error) {
	var rows []*BillRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read bill rows: %w", err)
	}

	inputs := make([]CreateBillInput, 0, len(rows))
	for i, row := range rows {
		input, err := row.toInput()
		if err != nil {
			// Line 1 is the header
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		inputs = append(inputs, input)
	}

	imported := make([]ImportedBill, 0, len(inputs))
	for i, input := range inputs {
		bill, err := s.CreateBill(ctx, input)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", i+2, err)
		}
		imported = append(imported, ImportedBill{Line: i + 2, ID: bill.ID})
	}

	return imported, nil
}

func (row *BillRow) toInput() (CreateBillInput, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return CreateBillInput{}, fmt.Errorf("invalid amount %q: %w", row.Amount, err)
	}

	input := CreateBillInput{
		CustomerName: row.CustomerName,
		Amount:       amount,
		Lender:       row.Lender,
	}

	if row.DueDate != "" {
		due, err := time.Parse(time.DateOnly, row.DueDate)
		if err != nil {
			return CreateBillInput{}, fmt.Errorf("invalid due_date %q: %w", row.DueDate, err)
		}
		input.DueDate = &due
	}

	return input, nil
}

package grpc

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/simaogato/billlink-backend/internal/domain"
	"github.com/simaogato/billlink-backend/internal/usecase/admin"
)

// Server implements the BillAdmin gRPC server
type Server struct {
	AdminService *admin.AdminService
}

// NewServer creates a new gRPC server instance
func NewServer(adminService *admin.AdminService) *Server {
	return &Server{
		AdminService: adminService,
	}
}

// CreateBill handles the CreateBill RPC.
// Request fields: customer_name, amount (string or number), due_date (YYYY-MM-DD), lender.
func (s *Server) CreateBill(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	// Parse amount from string or number to decimal
	amountValue, ok := fields["amount"]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "amount is required")
	}
	var amount decimal.Decimal
	switch kind := amountValue.GetKind().(type) {
	case *structpb.Value_StringValue:
		parsed, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: %v", err)
		}
		amount = parsed
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: %v is not a finite number", kind.NumberValue)
		}
		amount = decimal.NewFromFloat(kind.NumberValue)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount format: expected string or number")
	}

	// Parse optional due date
	var dueDate *time.Time
	if raw := stringField(fields, "due_date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid due_date format: %v", err)
		}
		dueDate = &parsed
	}

	input := admin.CreateBillInput{
		CustomerName: stringField(fields, "customer_name"),
		Amount:       amount,
		DueDate:      dueDate,
		Lender:       stringField(fields, "lender"),
	}

	bill, err := s.AdminService.CreateBill(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return billToStruct(bill)
}

// GetBill handles the GetBill RPC
func (s *Server) GetBill(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	bill, err := s.AdminService.GetBill(ctx, req.GetValue())
	if err != nil {
		return nil, mapError(err)
	}
	return billToStruct(bill)
}

// ListBills handles the ListBills RPC
func (s *Server) ListBills(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	bills, err := s.AdminService.ListBills(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	values := make([]*structpb.Value, 0, len(bills))
	for _, bill := range bills {
		st, err := billToStruct(bill)
		if err != nil {
			return nil, err
		}
		values = append(values, structpb.NewStructValue(st))
	}

	return &structpb.ListValue{Values: values}, nil
}

// DeleteBill handles the DeleteBill RPC
func (s *Server) DeleteBill(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.AdminService.DeleteBill(ctx, req.GetValue()); err != nil {
		return nil, mapError(err)
	}
	return &emptypb.Empty{}, nil
}

// CustomerLink is the path a customer opens for a bill
func CustomerLink(id string) string {
	return "/customer/" + id
}

// billToStruct converts a domain Bill to a Struct message. Absent fields are null.
func billToStruct(bill *domain.Bill) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":            bill.ID,
		"customer_name": nil,
		"amount":        bill.Amount.String(),
		"due_date":      nil,
		"lender":        nil,
		"created_at":    bill.CreatedAt.UTC().Format(time.RFC3339),
		"link":          CustomerLink(bill.ID),
	}
	if bill.CustomerName != nil {
		fields["customer_name"] = *bill.CustomerName
	}
	if bill.DueDate != nil {
		fields["due_date"] = bill.DueDate.Format(time.DateOnly)
	}
	if bill.Lender != nil {
		fields["lender"] = *bill.Lender
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode bill: %v", err)
	}
	return st, nil
}

func stringField(fields map[string]*structpb.Value, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrBillNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	}

	errorMsg := err.Error()

	// Map common validation errors to InvalidArgument
	if strings.Contains(errorMsg, "invalid") ||
		strings.Contains(errorMsg, "must not be negative") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}

package wizard

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/domain"
	"github.com/simaogato/billlink-backend/internal/session"
)

// Step is a state of the payment wizard
type Step string

const (
	StepViewing         Step = "VIEWING"
	StepSelectingMethod Step = "SELECTING_METHOD"
	StepDisplayingCode  Step = "DISPLAYING_CODE"
)

// Next returns the step that follows s. DisplayingCode is terminal.
func (s Step) Next() (Step, bool) {
	switch s {
	case StepViewing:
		return StepSelectingMethod, true
	case StepSelectingMethod:
		return StepDisplayingCode, true
	default:
		return "", false
	}
}

// IncompleteSelectionMessage is shown when the method step is submitted without an amount or bank
const IncompleteSelectionMessage = "กรุณากรอกข้อมูลให้ครบถ้วน"

// ValidationError is a wizard-local input error. It is shown to the customer and
// never leaves the process.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

// BalanceView is the model of the first step
type BalanceView struct {
	Bill *domain.Bill
	Step Step
}

// MethodForm is the model of the second step
type MethodForm struct {
	Bill         *domain.Bill
	Step         Step
	Amount       string
	SelectedBank string
	Banks        []string
	Error        *ValidationError
}

// PaymentCode is the model of the final step
type PaymentCode struct {
	Bill            *domain.Bill
	Step            Step
	Amount          decimal.Decimal
	SelectedBank    string
	TransactionCode string
}

// CodeGenerator returns a display-only transaction code
type CodeGenerator func() string

// WizardService sequences the wizard steps over a session store
type WizardService struct {
	Store   session.Store
	NewCode CodeGenerator
	logger  *zap.Logger
}

// NewWizardService creates a new WizardService instance
func NewWizardService(store session.Store, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		Store:   store,
		NewCode: NewTransactionCode,
		logger:  logger,
	}
}

// View enters the Viewing step. Nothing is written: the wizard state of a
// scope starts out empty.
func (s *WizardService) View(ctx context.Context, scope session.Scope, bill *domain.Bill) *BalanceView {
	return &BalanceView{Bill: bill, Step: StepViewing}
}

// ChooseMethod moves Viewing -> SelectingMethod. The amount defaults to a
// previously stored amount, then to the bill amount.
func (s *WizardService) ChooseMethod(ctx context.Context, scope session.Scope, bill *domain.Bill) *MethodForm {
	state := s.State(ctx, scope)

	amount := state.PaymentAmount
	if amount == "" {
		amount = bill.Amount.String()
	}

	return &MethodForm{
		Bill:         bill,
		Step:         StepSelectingMethod,
		Amount:       amount,
		SelectedBank: state.SelectedBank,
		Banks:        domain.Banks,
	}
}

// SubmitMethod moves SelectingMethod -> DisplayingCode.
// The selection is persisted only when it validates; otherwise a *ValidationError
// is returned and the stored state is left untouched.
func (s *WizardService) SubmitMethod(ctx context.Context, scope session.Scope, amount, bank string) error {
	amount = strings.TrimSpace(amount)
	bank = strings.TrimSpace(bank)

	if err := ValidateSelection(amount, bank); err != nil {
		s.logger.Debug("payment method rejected",
			zap.String("bill_id", scope.BillID),
			zap.Error(err),
		)
		return err
	}

	scope.Set(ctx, s.Store, session.KeyPaymentAmount, amount)
	scope.Set(ctx, s.Store, session.KeySelectedBank, bank)

	return nil
}

// PaymentCode renders the terminal DisplayingCode step. It only reads the
// wizard state. The transaction code is fresh on every call.
func (s *WizardService) PaymentCode(ctx context.Context, scope session.Scope, bill *domain.Bill) *PaymentCode {
	state := s.State(ctx, scope)

	amount := bill.Amount
	if state.PaymentAmount != "" {
		if parsed, err := decimal.NewFromString(state.PaymentAmount); err == nil {
			amount = parsed
		}
	}

	return &PaymentCode{
		Bill:            bill,
		Step:            StepDisplayingCode,
		Amount:          amount,
		SelectedBank:    state.SelectedBank,
		TransactionCode: s.NewCode(),
	}
}

// State reads the wizard state of scope
func (s *WizardService) State(ctx context.Context, scope session.Scope) domain.WizardState {
	amount, _ := scope.Get(ctx, s.Store, session.KeyPaymentAmount)
	bank, _ := scope.Get(ctx, s.Store, session.KeySelectedBank)
	return domain.WizardState{PaymentAmount: amount, SelectedBank: bank}
}

// ValidateSelection checks the method step input
func ValidateSelection(amount, bank string) error {
	if amount == "" || bank == "" {
		field := "amount"
		if amount != "" {
			field = "bank"
		}
		return &ValidationError{Field: field, Message: IncompleteSelectionMessage}
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil || parsed.IsNegative() {
		return &ValidationError{Field: "amount", Message: IncompleteSelectionMessage}
	}

	if !domain.IsKnownBank(bank) {
		return &ValidationError{Field: "bank", Message: IncompleteSelectionMessage}
	}

	return nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransactionCode returns a random XXXX-XXXX-XXXX-XXXX code.
// It is for display only and is never recorded.
func NewTransactionCode() string {
	var b strings.Builder
	b.Grow(19)
	for i := 0; i < 16; i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

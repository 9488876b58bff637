package domain

// Banks is the fixed set of payment-method labels a customer can choose from
var Banks = []string{
	"ธนาคารกรุงเทพ",
	"ธนาคารกสิกรไทย",
	"ธนาคารไทยพาณิชย์",
	"ธนาคารกรุงไทย",
	"ธนาคารทหารไทยธนชาต",
	"ธนาคารกรุงศรีอยุธยา",
}

// IsKnownBank reports whether label is one of Banks
func IsKnownBank(label string) bool {
	for _, b := range Banks {
		if b == label {
			return true
		}
	}
	return false
}

// WizardState carries customer input between wizard steps.
// Both fields are kept string-encoded, exactly as they are stored in the session.
type WizardState struct {
	PaymentAmount string
	SelectedBank  string
}

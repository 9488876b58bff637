package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MinIdentifierLength is the shortest identifier worth a lookup, in characters.
// Anything shorter is a truncated or hand-edited link.
const MinIdentifierLength = 10

// ErrInvalidIdentifier is returned for identifiers rejected before any lookup
var ErrInvalidIdentifier = errors.New("invalid bill identifier")

// NormalizeIdentifier strips the whitespace a pasted link may carry.
// The result is what gets validated, looked up and used as session scope.
func NormalizeIdentifier(id string) string {
	return strings.TrimSpace(id)
}

// ValidateIdentifier rejects blank identifiers and identifiers shorter than
// MinIdentifierLength characters. id is checked exactly as given.
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidIdentifier
	}
	if utf8.RuneCountInString(id) < MinIdentifierLength {
		return ErrInvalidIdentifier
	}
	return nil
}

// Package format renders amounts and dates for Thai-locale pages
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySymbol prefixes every displayed amount
const CurrencySymbol = "฿"

// buddhistEraOffset converts a Gregorian year to the Thai Buddhist era
const buddhistEraOffset = 543

var printer = message.NewPrinter(language.Thai)

// Number formats amount with th-TH grouping and at most three fraction digits
func Number(amount decimal.Decimal) string {
	f, _ := amount.Round(3).Float64()
	return printer.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(3)))
}

// Baht formats amount as a displayed price, e.g. "฿ 15,000"
func Baht(amount decimal.Decimal) string {
	return CurrencySymbol + " " + Number(amount)
}

// Date formats d as day/month/year in the Buddhist era, e.g. "31/12/2567"
func Date(d time.Time) string {
	return fmt.Sprintf("%d/%d/%d", d.Day(), int(d.Month()), d.Year()+buddhistEraOffset)
}

// DaysUntil returns the whole days from now until due, rounded up.
// It is negative once the due date has passed.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

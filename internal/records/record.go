package records

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Record is a backend entity rendered as a table row.
type Record interface {
	Key() string
	Cells() []string
	FormValues() map[string]string
}

// Approvable records pass through an approval gate.
type Approvable interface {
	Record
	Approval() string
}

// Field describes one input of an entity form.
type Field struct {
	Name     string
	Label    string
	Type     string
	Options  []string
	Required bool
	// CreateOnly fields are hidden on the edit form.
	CreateOnly bool
}

// Approval states.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

var printer = message.NewPrinter(language.English)

// Currency is the display currency for amounts.
const Currency = "AED"

// FormatMoney renders d with thousands separators and two decimals.
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	intPart, _ := decimal.NewFromString(whole)
	out := printer.Sprintf("%d", intPart.IntPart()) + "." + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return Currency + " " + out
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDate renders t as a calendar date, or a dash when unset.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

func dateValue(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func humanize(status string) string {
	if status == "" {
		return "-"
	}
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(status))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

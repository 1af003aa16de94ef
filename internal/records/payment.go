package records

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is money received against an invoice.
type Payment struct {
	ID            string          `json:"id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
}

var paymentMethods = []string{"bank_transfer", "cheque", "cash", "card"}

// PaymentColumns are the table headings matching Payment.Cells.
var PaymentColumns = []string{"Invoice", "Customer", "Amount", "Method", "Reference", "Paid on", "Status"}

// PaymentFields describe the payment form.
var PaymentFields = []Field{
	{Name: "invoice_number", Label: "Invoice number", Type: "text", Required: true},
	{Name: "amount", Label: "Amount", Type: "number", Required: true},
	{Name: "method", Label: "Method", Type: "select", Options: paymentMethods, Required: true},
	{Name: "reference", Label: "Reference", Type: "text"},
	{Name: "paid_at", Label: "Paid on", Type: "date", Required: true},
}

func (p Payment) Key() string { return p.ID }

func (p Payment) Cells() []string {
	return []string{p.InvoiceNumber, p.CustomerName, FormatMoney(p.Amount), humanize(p.Method), p.Reference, FormatDate(p.PaidAt), humanize(p.Status)}
}

func (p Payment) FormValues() map[string]string {
	return map[string]string{
		"invoice_number": p.InvoiceNumber,
		"amount":         p.Amount.String(),
		"method":         p.Method,
		"reference":      p.Reference,
		"paid_at":        dateValue(p.PaidAt),
	}
}

// PaymentInput is the create/update payload.
type PaymentInput struct {
	InvoiceNumber string          `json:"invoice_number" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required,oneof=bank_transfer cheque cash card"`
	Reference     string          `json:"reference,omitempty"`
	PaidAt        *time.Time      `json:"paid_at" validate:"required"`
}

// BindPayment reads and validates a payment form.
func BindPayment(values url.Values, _ bool) (any, error) {
	f := newForm(values)
	in := PaymentInput{
		InvoiceNumber: f.str("invoice_number"),
		Amount:        f.money("amount"),
		Method:        f.str("method"),
		Reference:     f.str("reference"),
		PaidAt:        f.date("paid_at"),
	}
	if !in.Amount.IsPositive() {
		f.errs.add("amount", "must be greater than zero")
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

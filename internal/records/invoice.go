package records

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a billing document raised against a rental contract.
type Invoice struct {
	ID             string          `json:"id" validate:"required"`
	InvoiceNumber  string          `json:"invoice_number" validate:"required"`
	ContractID     string          `json:"contract_id"`
	ContractNumber string          `json:"contract_number"`
	CustomerName   string          `json:"customer_name"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	DueDate        *time.Time      `json:"due_date"`
	CreatedAt      *time.Time      `json:"created_at"`
}

var invoiceStatuses = []string{"draft", "pending", "paid", "overdue", "cancelled"}

// InvoiceColumns are the table headings matching Invoice.Cells.
var InvoiceColumns = []string{"Invoice", "Contract", "Customer", "Amount", "Due", "Status"}

// InvoiceFields describe the invoice form.
var InvoiceFields = []Field{
	{Name: "invoice_number", Label: "Invoice number", Type: "text", Required: true},
	{Name: "contract_id", Label: "Contract", Type: "text", Required: true},
	{Name: "customer_name", Label: "Customer", Type: "text"},
	{Name: "amount", Label: "Amount", Type: "number", Required: true},
	{Name: "due_date", Label: "Due date", Type: "date", Required: true},
	{Name: "status", Label: "Status", Type: "select", Options: invoiceStatuses},
}

func (i Invoice) Key() string { return i.ID }

func (i Invoice) Cells() []string {
	return []string{i.InvoiceNumber, i.ContractNumber, i.CustomerName, FormatMoney(i.Amount), FormatDate(i.DueDate), humanize(i.Status)}
}

func (i Invoice) FormValues() map[string]string {
	return map[string]string{
		"invoice_number": i.InvoiceNumber,
		"contract_id":    i.ContractID,
		"customer_name":  i.CustomerName,
		"amount":         i.Amount.String(),
		"due_date":       dateValue(i.DueDate),
		"status":         i.Status,
	}
}

// InvoiceInput is the create/update payload.
type InvoiceInput struct {
	InvoiceNumber string          `json:"invoice_number" validate:"required"`
	ContractID    string          `json:"contract_id" validate:"required"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date" validate:"required"`
	Status        string          `json:"status,omitempty" validate:"omitempty,oneof=draft pending paid overdue cancelled"`
}

// BindInvoice reads and validates an invoice form.
func BindInvoice(values url.Values, _ bool) (any, error) {
	f := newForm(values)
	in := InvoiceInput{
		InvoiceNumber: f.str("invoice_number"),
		ContractID:    f.str("contract_id"),
		CustomerName:  f.str("customer_name"),
		Amount:        f.money("amount"),
		DueDate:       f.date("due_date"),
		Status:        f.str("status"),
	}
	if !in.Amount.IsPositive() {
		f.errs.add("amount", "must be greater than zero")
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

package records

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Quotation is a priced offer prepared by sales. Sending it puts it in
// front of an admin for approval.
type Quotation struct {
	ID           string          `json:"id" validate:"required"`
	QuotationID  string          `json:"quotation_id"`
	EnquiryID    string          `json:"enquiry_id"`
	CustomerName string          `json:"customer_name"`
	Company      string          `json:"company"`
	Project      string          `json:"project"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	ValidUntil   *time.Time      `json:"valid_until"`
	Notes        *string         `json:"notes"`
}

// Quotation statuses.
const (
	QuotationDraft = "draft"
	QuotationSent  = "sent"
)

var quotationStatuses = []string{QuotationDraft, QuotationSent}

// QuotationColumns are the table headings matching Quotation.Cells.
var QuotationColumns = []string{"Quotation", "Customer", "Project", "Total", "Valid until", "Status"}

// QuotationFields describe the quotation form.
var QuotationFields = []Field{
	{Name: "enquiry_id", Label: "Enquiry", Type: "text", CreateOnly: true},
	{Name: "customer_name", Label: "Customer", Type: "text", Required: true, CreateOnly: true},
	{Name: "company", Label: "Company", Type: "text", Required: true, CreateOnly: true},
	{Name: "project", Label: "Project", Type: "text", Required: true, CreateOnly: true},
	{Name: "total_amount", Label: "Total", Type: "number", Required: true},
	{Name: "valid_until", Label: "Valid until", Type: "date"},
	{Name: "status", Label: "Status", Type: "select", Options: quotationStatuses},
	{Name: "notes", Label: "Notes", Type: "textarea"},
}

func (q Quotation) Key() string { return q.ID }

// Approval maps the quotation status onto the approval gate. A sent
// quotation is waiting for an admin; a draft has not reached the gate.
func (q Quotation) Approval() string {
	switch q.Status {
	case QuotationSent, ApprovalPending, "pending_approval":
		return ApprovalPending
	case ApprovalApproved, ApprovalRejected:
		return q.Status
	}
	return ""
}

func (q Quotation) Cells() []string {
	customer := q.CustomerName
	if q.Company != "" {
		customer = q.CustomerName + " (" + q.Company + ")"
	}
	return []string{q.QuotationID, customer, q.Project, FormatMoney(q.TotalAmount), FormatDate(q.ValidUntil), humanize(q.Status)}
}

func (q Quotation) FormValues() map[string]string {
	return map[string]string{
		"enquiry_id":    q.EnquiryID,
		"customer_name": q.CustomerName,
		"company":       q.Company,
		"project":       q.Project,
		"total_amount":  q.TotalAmount.String(),
		"valid_until":   dateValue(q.ValidUntil),
		"status":        q.Status,
		"notes":         deref(q.Notes),
	}
}

// QuotationInput is the create payload. New quotations go straight to
// approval unless saved as a draft.
type QuotationInput struct {
	EnquiryID    string          `json:"enquiry_id,omitempty"`
	CustomerName string          `json:"customer_name" validate:"required"`
	Company      string          `json:"company" validate:"required"`
	Project      string          `json:"project" validate:"required"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty"`
	Status       string          `json:"status" validate:"oneof=draft sent"`
	Notes        *string         `json:"notes,omitempty"`
}

// QuotationUpdate is the update payload.
type QuotationUpdate struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	ValidUntil  *time.Time      `json:"valid_until,omitempty"`
	Status      string          `json:"status,omitempty" validate:"omitempty,oneof=draft sent"`
	Notes       *string         `json:"notes,omitempty"`
}

// QuotationValidity is how long a new quotation stays open by default.
const QuotationValidity = 10 * 24 * time.Hour

// BindQuotation reads and validates a quotation form.
func BindQuotation(values url.Values, create bool) (any, error) {
	f := newForm(values)
	total := f.money("total_amount")
	if !total.IsPositive() {
		f.errs.add("total_amount", "must be greater than zero")
	}
	if !create {
		up := QuotationUpdate{
			TotalAmount: total,
			ValidUntil:  f.date("valid_until"),
			Status:      f.str("status"),
			Notes:       f.optStr("notes"),
		}
		if err := f.check(up); err != nil {
			return nil, err
		}
		return up, nil
	}
	in := QuotationInput{
		EnquiryID:    f.str("enquiry_id"),
		CustomerName: f.str("customer_name"),
		Company:      f.str("company"),
		Project:      f.str("project"),
		TotalAmount:  total,
		ValidUntil:   f.date("valid_until"),
		Status:       f.str("status"),
		Notes:        f.optStr("notes"),
	}
	if in.Status == "" {
		in.Status = QuotationSent
	}
	if in.ValidUntil == nil {
		until := time.Now().UTC().Add(QuotationValidity).Truncate(24 * time.Hour)
		in.ValidUntil = &until
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

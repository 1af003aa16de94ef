package records

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Contract is the rental agreement raised from an approved sales order.
type Contract struct {
	ID             string          `json:"id" validate:"required"`
	ContractID     string          `json:"contract_id"`
	SalesOrderID   string          `json:"sales_order_id"`
	Customer       string          `json:"customer"`
	Project        string          `json:"project"`
	Equipment      string          `json:"equipment"`
	StartDate      *time.Time      `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	ApprovalStatus string          `json:"approval_status"`
}

var contractStatuses = []string{"pending", "active", "completed", "terminated"}

// ContractColumns are the table headings matching Contract.Cells.
var ContractColumns = []string{"Contract", "Customer", "Project", "Equipment", "Period", "Amount", "Status", "Approval"}

// ContractFields describe the contract form.
var ContractFields = []Field{
	{Name: "customer", Label: "Customer", Type: "text", Required: true},
	{Name: "project", Label: "Project", Type: "text", Required: true},
	{Name: "equipment", Label: "Equipment", Type: "text", Required: true},
	{Name: "start_date", Label: "Start date", Type: "date", Required: true},
	{Name: "end_date", Label: "End date", Type: "date", Required: true},
	{Name: "amount", Label: "Amount", Type: "number", Required: true},
	{Name: "status", Label: "Status", Type: "select", Options: contractStatuses},
}

func (c Contract) Key() string { return c.ID }

// Approval treats a missing approval status as pending.
func (c Contract) Approval() string {
	if c.ApprovalStatus == "" {
		return ApprovalPending
	}
	return c.ApprovalStatus
}

func (c Contract) Cells() []string {
	period := FormatDate(c.StartDate) + " to " + FormatDate(c.EndDate)
	return []string{c.ContractID, c.Customer, c.Project, c.Equipment, period, FormatMoney(c.Amount), humanize(c.Status), humanize(c.Approval())}
}

func (c Contract) FormValues() map[string]string {
	return map[string]string{
		"customer":   c.Customer,
		"project":    c.Project,
		"equipment":  c.Equipment,
		"start_date": dateValue(c.StartDate),
		"end_date":   dateValue(c.EndDate),
		"amount":     c.Amount.String(),
		"status":     c.Status,
	}
}

// ContractInput is the create/update payload.
type ContractInput struct {
	Customer  string          `json:"customer" validate:"required"`
	Project   string          `json:"project" validate:"required"`
	Equipment string          `json:"equipment" validate:"required"`
	StartDate *time.Time      `json:"start_date" validate:"required"`
	EndDate   *time.Time      `json:"end_date" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status,omitempty" validate:"omitempty,oneof=pending active completed terminated"`
}

// BindContract reads and validates a contract form.
func BindContract(values url.Values, _ bool) (any, error) {
	f := newForm(values)
	in := ContractInput{
		Customer:  f.str("customer"),
		Project:   f.str("project"),
		Equipment: f.str("equipment"),
		StartDate: f.date("start_date"),
		EndDate:   f.date("end_date"),
		Amount:    f.money("amount"),
		Status:    f.str("status"),
	}
	if !in.Amount.IsPositive() {
		f.errs.add("amount", "must be greater than zero")
	}
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(*in.StartDate) {
		f.errs.add("end_date", "must be after start_date")
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

package records

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// Customer is a rental customer account managed by admins.
type Customer struct {
	ID             string          `json:"id" validate:"required"`
	CustomerID     string          `json:"customer_id"`
	Name           string          `json:"name" validate:"required"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	CRNumber       string          `json:"cr_number"`
	VATNumber      string          `json:"vat_number"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	ApprovalStatus string          `json:"approval_status"`
}

// CustomerColumns are the table headings matching Customer.Cells.
var CustomerColumns = []string{"Code", "Name", "E-mail", "Phone", "Credit limit", "Approval"}

// CustomerFields describe the customer form.
var CustomerFields = []Field{
	{Name: "name", Label: "Name", Type: "text", Required: true},
	{Name: "email", Label: "E-mail", Type: "email", Required: true},
	{Name: "phone", Label: "Phone", Type: "tel", Required: true},
	{Name: "cr_number", Label: "CR number", Type: "text"},
	{Name: "vat_number", Label: "VAT number", Type: "text"},
	{Name: "credit_limit", Label: "Credit limit", Type: "number"},
	{Name: "deposit_amount", Label: "Deposit", Type: "number"},
}

func (c Customer) Key() string      { return c.ID }
func (c Customer) Approval() string { return c.ApprovalStatus }

func (c Customer) Cells() []string {
	return []string{c.CustomerID, c.Name, c.Email, c.Phone, FormatMoney(c.CreditLimit), humanize(c.ApprovalStatus)}
}

func (c Customer) FormValues() map[string]string {
	return map[string]string{
		"name":           c.Name,
		"email":          c.Email,
		"phone":          c.Phone,
		"cr_number":      c.CRNumber,
		"vat_number":     c.VATNumber,
		"credit_limit":   c.CreditLimit.String(),
		"deposit_amount": c.DepositAmount.String(),
	}
}

// CustomerInput is the create/update payload.
type CustomerInput struct {
	Name          string          `json:"name" validate:"required"`
	Email         string          `json:"email" validate:"required,email"`
	Phone         string          `json:"phone" validate:"required"`
	CRNumber      string          `json:"cr_number,omitempty"`
	VATNumber     string          `json:"vat_number,omitempty"`
	CreditLimit   decimal.Decimal `json:"credit_limit"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
}

// BindCustomer reads and validates a customer form.
func BindCustomer(values url.Values, _ bool) (any, error) {
	f := newForm(values)
	in := CustomerInput{
		Name:          f.str("name"),
		Email:         f.str("email"),
		Phone:         f.str("phone"),
		CRNumber:      f.str("cr_number"),
		VATNumber:     f.str("vat_number"),
		CreditLimit:   f.money("credit_limit"),
		DepositAmount: f.money("deposit_amount"),
	}
	f.nonNegative("credit_limit", in.CreditLimit)
	f.nonNegative("deposit_amount", in.DepositAmount)
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

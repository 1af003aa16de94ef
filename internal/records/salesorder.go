package records

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// SalesOrderItem is one priced line of a sales order.
type SalesOrderItem struct {
	Equipment string          `json:"equipment"`
	Quantity  int             `json:"quantity"`
	Unit      string          `json:"unit"`
	Rate      decimal.Decimal `json:"rate"`
	Total     decimal.Decimal `json:"total"`
}

// SalesOrder is a confirmed order moving towards contract and dispatch.
type SalesOrder struct {
	ID              string           `json:"id" validate:"required"`
	SalesOrderID    string           `json:"sales_order_id"`
	QuotationID     string           `json:"quotation_id"`
	CustomerName    string           `json:"customer_name"`
	Company         string           `json:"company"`
	Project         string           `json:"project"`
	Items           []SalesOrderItem `json:"items"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	DeliveryAddress string           `json:"delivery_address"`
	ContactPerson   string           `json:"contact_person"`
	ContactPhone    string           `json:"contact_phone"`
	ContactEmail    string           `json:"contact_email"`
	Notes           *string          `json:"notes"`
	Status          string           `json:"status"`
	StockChecked    bool             `json:"stock_checked"`
	StockAvailable  bool             `json:"stock_available"`
}

var salesOrderStatuses = []string{"draft", "pending_approval", "approved", "processing", "completed", "cancelled"}

// Workflow lists the stages a rental passes through, in order.
var Workflow = []string{"Enquiry", "Quotation", "Sales order", "Contract", "Dispatch", "Invoice"}

// Stage maps a sales order status onto the rental workflow.
func (s SalesOrder) Stage() string {
	switch s.Status {
	case "draft", "pending_approval":
		return "Sales order"
	case "approved":
		return "Contract"
	case "processing":
		return "Dispatch"
	case "completed":
		return "Invoice"
	case "cancelled":
		return "Cancelled"
	default:
		return "Sales order"
	}
}

// SalesOrderColumns are the table headings matching SalesOrder.Cells.
var SalesOrderColumns = []string{"Order", "Customer", "Project", "Lines", "Total", "Stock", "Status", "Stage"}

// SalesOrderFields describe the sales order form.
var SalesOrderFields = []Field{
	{Name: "quotation_id", Label: "Quotation", Type: "text", Required: true, CreateOnly: true},
	{Name: "customer_name", Label: "Customer", Type: "text", Required: true, CreateOnly: true},
	{Name: "company", Label: "Company", Type: "text", Required: true, CreateOnly: true},
	{Name: "project", Label: "Project", Type: "text", Required: true, CreateOnly: true},
	{Name: "total_amount", Label: "Total", Type: "number", Required: true, CreateOnly: true},
	{Name: "delivery_address", Label: "Delivery address", Type: "text", Required: true, CreateOnly: true},
	{Name: "contact_person", Label: "Contact person", Type: "text", Required: true, CreateOnly: true},
	{Name: "contact_phone", Label: "Contact phone", Type: "tel", Required: true, CreateOnly: true},
	{Name: "contact_email", Label: "Contact e-mail", Type: "email", Required: true, CreateOnly: true},
	{Name: "status", Label: "Status", Type: "select", Options: salesOrderStatuses},
	{Name: "stock_checked", Label: "Stock checked", Type: "checkbox"},
	{Name: "stock_available", Label: "Stock available", Type: "checkbox"},
	{Name: "notes", Label: "Notes", Type: "textarea"},
}

func (s SalesOrder) Key() string { return s.ID }

func (s SalesOrder) Cells() []string {
	stock := "Not checked"
	if s.StockChecked {
		stock = "Short"
		if s.StockAvailable {
			stock = "Available"
		}
	}
	company := s.CustomerName
	if s.Company != "" {
		company = s.CustomerName + " (" + s.Company + ")"
	}
	return []string{s.SalesOrderID, company, s.Project, FormatCount(len(s.Items)), FormatMoney(s.TotalAmount), stock, humanize(s.Status), s.Stage()}
}

func (s SalesOrder) FormValues() map[string]string {
	values := map[string]string{
		"quotation_id":     s.QuotationID,
		"customer_name":    s.CustomerName,
		"company":          s.Company,
		"project":          s.Project,
		"total_amount":     s.TotalAmount.String(),
		"delivery_address": s.DeliveryAddress,
		"contact_person":   s.ContactPerson,
		"contact_phone":    s.ContactPhone,
		"contact_email":    s.ContactEmail,
		"status":           s.Status,
		"notes":            deref(s.Notes),
	}
	if s.StockChecked {
		values["stock_checked"] = "on"
	}
	if s.StockAvailable {
		values["stock_available"] = "on"
	}
	return values
}

// SalesOrderInput is the create payload.
type SalesOrderInput struct {
	QuotationID     string           `json:"quotation_id" validate:"required"`
	CustomerName    string           `json:"customer_name" validate:"required"`
	Company         string           `json:"company" validate:"required"`
	Project         string           `json:"project" validate:"required"`
	Items           []SalesOrderItem `json:"items"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	DeliveryAddress string           `json:"delivery_address" validate:"required"`
	ContactPerson   string           `json:"contact_person" validate:"required"`
	ContactPhone    string           `json:"contact_phone" validate:"required"`
	ContactEmail    string           `json:"contact_email" validate:"required,email"`
	Notes           *string          `json:"notes,omitempty"`
}

// SalesOrderUpdate is the update payload.
type SalesOrderUpdate struct {
	Status         string  `json:"status,omitempty" validate:"omitempty,oneof=draft pending_approval approved processing completed cancelled"`
	StockChecked   bool    `json:"stock_checked"`
	StockAvailable bool    `json:"stock_available"`
	Notes          *string `json:"notes,omitempty"`
}

// BindSalesOrder reads and validates a sales order form.
func BindSalesOrder(values url.Values, create bool) (any, error) {
	f := newForm(values)
	if !create {
		up := SalesOrderUpdate{
			Status:         f.str("status"),
			StockChecked:   f.boolean("stock_checked"),
			StockAvailable: f.boolean("stock_available"),
			Notes:          f.optStr("notes"),
		}
		if err := f.check(up); err != nil {
			return nil, err
		}
		return up, nil
	}
	in := SalesOrderInput{
		QuotationID:     f.str("quotation_id"),
		CustomerName:    f.str("customer_name"),
		Company:         f.str("company"),
		Project:         f.str("project"),
		Items:           []SalesOrderItem{},
		TotalAmount:     f.money("total_amount"),
		DeliveryAddress: f.str("delivery_address"),
		ContactPerson:   f.str("contact_person"),
		ContactPhone:    f.str("contact_phone"),
		ContactEmail:    f.str("contact_email"),
		Notes:           f.optStr("notes"),
	}
	f.nonNegative("total_amount", in.TotalAmount)
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

package records

import (
	"net/url"
	"strconv"
)

// Enquiry is a customer's rental request before quotation.
type Enquiry struct {
	ID                   string  `json:"id" validate:"required"`
	EnquiryID            string  `json:"enquiry_id"`
	CustomerName         string  `json:"customer_name"`
	CustomerEmail        string  `json:"customer_email"`
	EquipmentName        string  `json:"equipment_name" validate:"required"`
	Quantity             int     `json:"quantity"`
	RentalDurationDays   int     `json:"rental_duration_days"`
	DeliveryLocation     string  `json:"delivery_location"`
	ExpectedDeliveryDate string  `json:"expected_delivery_date"`
	SpecialInstructions  *string `json:"special_instructions"`
	SalespersonName      *string `json:"assigned_salesperson_name"`
	Status               string  `json:"status"`
}

var enquiryStatuses = []string{
	"submitted_by_customer", "quotation_created", "quotation_sent",
	"approved", "rejected", "converted_to_order",
}

// EnquiryColumns are the table headings matching Enquiry.Cells.
var EnquiryColumns = []string{"Enquiry", "Customer", "Equipment", "Qty", "Days", "Delivery", "Salesperson", "Status"}

// EnquiryFields describe the enquiry form.
var EnquiryFields = []Field{
	{Name: "customer_name", Label: "Customer", Type: "text", Required: true, CreateOnly: true},
	{Name: "customer_email", Label: "Customer e-mail", Type: "email", Required: true, CreateOnly: true},
	{Name: "equipment_name", Label: "Equipment", Type: "text", Required: true, CreateOnly: true},
	{Name: "quantity", Label: "Quantity", Type: "number", Required: true, CreateOnly: true},
	{Name: "rental_duration_days", Label: "Rental days", Type: "number", Required: true, CreateOnly: true},
	{Name: "delivery_location", Label: "Delivery location", Type: "text", Required: true, CreateOnly: true},
	{Name: "expected_delivery_date", Label: "Expected delivery", Type: "date", Required: true, CreateOnly: true},
	{Name: "special_instructions", Label: "Special instructions", Type: "textarea"},
	{Name: "assigned_salesperson_name", Label: "Salesperson", Type: "text"},
	{Name: "status", Label: "Status", Type: "select", Options: enquiryStatuses},
}

func (e Enquiry) Key() string { return e.ID }

func (e Enquiry) Cells() []string {
	salesperson := deref(e.SalespersonName)
	if salesperson == "" {
		salesperson = "Unassigned"
	}
	return []string{
		e.EnquiryID,
		e.CustomerName,
		e.EquipmentName,
		FormatCount(e.Quantity),
		FormatCount(e.RentalDurationDays),
		e.ExpectedDeliveryDate,
		salesperson,
		humanize(e.Status),
	}
}

func (e Enquiry) FormValues() map[string]string {
	return map[string]string{
		"customer_name":             e.CustomerName,
		"customer_email":            e.CustomerEmail,
		"equipment_name":            e.EquipmentName,
		"quantity":                  strconv.Itoa(e.Quantity),
		"rental_duration_days":      strconv.Itoa(e.RentalDurationDays),
		"delivery_location":         e.DeliveryLocation,
		"expected_delivery_date":    e.ExpectedDeliveryDate,
		"special_instructions":      deref(e.SpecialInstructions),
		"assigned_salesperson_name": deref(e.SalespersonName),
		"status":                    e.Status,
	}
}

// EnquiryInput is the create payload.
type EnquiryInput struct {
	CustomerName         string  `json:"customer_name" validate:"required"`
	CustomerEmail        string  `json:"customer_email" validate:"required,email"`
	EquipmentName        string  `json:"equipment_name" validate:"required"`
	Quantity             int     `json:"quantity" validate:"gte=1"`
	RentalDurationDays   int     `json:"rental_duration_days" validate:"gte=1"`
	DeliveryLocation     string  `json:"delivery_location" validate:"required"`
	ExpectedDeliveryDate string  `json:"expected_delivery_date" validate:"required,datetime=2006-01-02"`
	SpecialInstructions  *string `json:"special_instructions,omitempty"`
}

// EnquiryUpdate is the update payload; only workflow fields change.
type EnquiryUpdate struct {
	Status              string  `json:"status,omitempty" validate:"omitempty,oneof=submitted_by_customer quotation_created quotation_sent approved rejected converted_to_order"`
	SalespersonName     *string `json:"assigned_salesperson_name,omitempty"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

// BindEnquiry reads and validates an enquiry form.
func BindEnquiry(values url.Values, create bool) (any, error) {
	f := newForm(values)
	if !create {
		up := EnquiryUpdate{
			Status:              f.str("status"),
			SalespersonName:     f.optStr("assigned_salesperson_name"),
			SpecialInstructions: f.optStr("special_instructions"),
		}
		if err := f.check(up); err != nil {
			return nil, err
		}
		return up, nil
	}
	in := EnquiryInput{
		CustomerName:         f.str("customer_name"),
		CustomerEmail:        f.str("customer_email"),
		EquipmentName:        f.str("equipment_name"),
		Quantity:             f.integer("quantity"),
		RentalDurationDays:   f.integer("rental_duration_days"),
		DeliveryLocation:     f.str("delivery_location"),
		ExpectedDeliveryDate: f.str("expected_delivery_date"),
		SpecialInstructions:  f.optStr("special_instructions"),
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

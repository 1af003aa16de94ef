package records

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Equipment is a catalogue item with stock counts.
type Equipment struct {
	ID                string          `json:"id" validate:"required"`
	ItemCode          string          `json:"item_code" validate:"required"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	QuantityTotal     int             `json:"quantity_total"`
	QuantityAvailable int             `json:"quantity_available"`
	QuantityRented    int             `json:"quantity_rented"`
	Location          string          `json:"location"`
	Status            string          `json:"status"`
	ApprovalStatus    string          `json:"approval_status"`
}

var (
	equipmentCategories = []string{"scaffolding", "formwork", "shoring", "safety", "tools", "other"}
	equipmentUnits      = []string{"piece", "set", "meter", "kg", "ton"}
	equipmentStatuses   = []string{"available", "rented", "maintenance", "damaged", "scrapped"}
)

// EquipmentColumns are the table headings matching Equipment.Cells.
var EquipmentColumns = []string{"Item code", "Description", "Category", "Daily rate", "Available", "Location", "Status", "Approval"}

// EquipmentFields describe the equipment form.
var EquipmentFields = []Field{
	{Name: "item_code", Label: "Item code", Type: "text", Required: true, CreateOnly: true},
	{Name: "description", Label: "Description", Type: "text", Required: true},
	{Name: "category", Label: "Category", Type: "select", Options: equipmentCategories, Required: true},
	{Name: "unit", Label: "Unit", Type: "select", Options: equipmentUnits, Required: true},
	{Name: "daily_rate", Label: "Daily rate", Type: "number", Required: true},
	{Name: "quantity_total", Label: "Total quantity", Type: "number", Required: true},
	{Name: "quantity_available", Label: "Available quantity", Type: "number", Required: true},
	{Name: "location", Label: "Location", Type: "text", Required: true},
	{Name: "status", Label: "Status", Type: "select", Options: equipmentStatuses},
}

func (e Equipment) Key() string      { return e.ID }
func (e Equipment) Approval() string { return e.ApprovalStatus }

func (e Equipment) Cells() []string {
	return []string{
		e.ItemCode,
		e.Description,
		humanize(e.Category),
		FormatMoney(e.DailyRate),
		FormatCount(e.QuantityAvailable) + " / " + FormatCount(e.QuantityTotal),
		e.Location,
		humanize(e.Status),
		humanize(e.ApprovalStatus),
	}
}

func (e Equipment) FormValues() map[string]string {
	return map[string]string{
		"item_code":          e.ItemCode,
		"description":        e.Description,
		"category":           e.Category,
		"unit":               e.Unit,
		"daily_rate":         e.DailyRate.String(),
		"quantity_total":     strconv.Itoa(e.QuantityTotal),
		"quantity_available": strconv.Itoa(e.QuantityAvailable),
		"location":           e.Location,
		"status":             e.Status,
	}
}

// EquipmentInput is the create/update payload.
type EquipmentInput struct {
	ItemCode          string          `json:"item_code,omitempty" validate:"required_if=Create true"`
	Description       string          `json:"description" validate:"required"`
	Category          string          `json:"category" validate:"required,oneof=scaffolding formwork shoring safety tools other"`
	Unit              string          `json:"unit" validate:"required,oneof=piece set meter kg ton"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	QuantityTotal     int             `json:"quantity_total" validate:"gte=0"`
	QuantityAvailable int             `json:"quantity_available" validate:"gte=0,ltefield=QuantityTotal"`
	Location          string          `json:"location" validate:"required"`
	Status            string          `json:"status,omitempty" validate:"omitempty,oneof=available rented maintenance damaged scrapped"`
	Create            bool            `json:"-"`
}

// BindEquipment reads and validates an equipment form.
func BindEquipment(values url.Values, create bool) (any, error) {
	f := newForm(values)
	in := EquipmentInput{
		ItemCode:          f.str("item_code"),
		Description:       f.str("description"),
		Category:          f.str("category"),
		Unit:              f.str("unit"),
		DailyRate:         f.money("daily_rate"),
		QuantityTotal:     f.integer("quantity_total"),
		QuantityAvailable: f.integer("quantity_available"),
		Location:          f.str("location"),
		Status:            f.str("status"),
		Create:            create,
	}
	if !create {
		in.ItemCode = ""
	}
	f.nonNegative("daily_rate", in.DailyRate)
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

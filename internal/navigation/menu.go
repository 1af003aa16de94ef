// Package navigation owns the per-role menus and the active tab of each
// role namespace. The location fragment always equals the active tab key so
// a reload restores the same panel.
package navigation

import "github.com/rentaldesk/rentaldesk/internal/roles"

// Tab is a menu key. It doubles as the URL fragment.
type Tab string

// Tab keys.
const (
	TabOverview    Tab = "overview"
	TabCustomers   Tab = "customers"
	TabEquipment   Tab = "equipment"
	TabInvoices    Tab = "invoices"
	TabPayments    Tab = "payments"
	TabEnquiries   Tab = "enquiries"
	TabQuotations  Tab = "quotations"
	TabSalesOrders Tab = "sales-orders"
	TabContracts   Tab = "contracts"
	TabEvents      Tab = "events"
	TabUsers       Tab = "users"
)

// MenuEntry is one sidebar item.
type MenuEntry struct {
	Title string
	Icon  string
	Route string
	Tab   Tab
}

var catalog = map[Tab]MenuEntry{
	TabOverview:    {Title: "Overview", Icon: "layout-dashboard", Tab: TabOverview},
	TabCustomers:   {Title: "Customers", Icon: "building", Tab: TabCustomers},
	TabEquipment:   {Title: "Equipment", Icon: "package", Tab: TabEquipment},
	TabInvoices:    {Title: "Invoices", Icon: "receipt", Tab: TabInvoices},
	TabPayments:    {Title: "Payments", Icon: "credit-card", Tab: TabPayments},
	TabEnquiries:   {Title: "Enquiries", Icon: "message-square", Tab: TabEnquiries},
	TabQuotations:  {Title: "Quotations", Icon: "file-text", Tab: TabQuotations},
	TabSalesOrders: {Title: "Sales Orders", Icon: "shopping-cart", Tab: TabSalesOrders},
	TabContracts:   {Title: "Contracts", Icon: "file-signature", Tab: TabContracts},
	TabEvents:      {Title: "Events", Icon: "calendar", Tab: TabEvents},
	TabUsers:       {Title: "Users & Roles", Icon: "users", Tab: TabUsers},
}

var layout = map[roles.Role][]Tab{
	roles.SuperAdmin: {TabOverview, TabCustomers, TabEquipment, TabInvoices, TabPayments, TabEnquiries, TabQuotations, TabSalesOrders, TabContracts, TabEvents, TabUsers},
	roles.Admin:      {TabOverview, TabCustomers, TabEquipment, TabInvoices, TabEvents, TabUsers, TabSalesOrders, TabEnquiries, TabQuotations, TabContracts},
	roles.Sales:      {TabOverview, TabEnquiries, TabQuotations, TabSalesOrders, TabContracts, TabCustomers},
	roles.Warehouse:  {TabOverview, TabSalesOrders, TabEquipment},
	roles.Finance:    {TabOverview, TabInvoices, TabPayments},
	roles.Customer:   {TabOverview, TabInvoices, TabEnquiries},
}

// Menu returns the ordered menu for role. Unknown roles get no entries.
func Menu(role roles.Role) []MenuEntry {
	tabs := layout[role]
	out := make([]MenuEntry, 0, len(tabs))
	for _, tab := range tabs {
		entry := catalog[tab]
		entry.Route = role.HomePath()
		out = append(out, entry)
	}
	return out
}

// Known reports whether tab is on role's menu.
func Known(role roles.Role, tab Tab) bool {
	for _, t := range layout[role] {
		if t == tab {
			return true
		}
	}
	return false
}

// Title is the menu title of tab, or the key itself.
func Title(tab Tab) string {
	if entry, ok := catalog[tab]; ok {
		return entry.Title
	}
	return string(tab)
}

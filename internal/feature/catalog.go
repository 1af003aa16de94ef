package feature

import (
	"log/slog"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/roles"
)

var (
	readOnly = Capabilities{}
	editOnly = Capabilities{Update: true}
	crud     = Capabilities{Create: true, Update: true, Delete: true}
	gated    = Capabilities{Create: true, Update: true, Delete: true, Approve: true}
)

// capabilities per tab and role. Super admins always get the full set the
// entity supports.
var capabilities = map[navigation.Tab]map[roles.Role]Capabilities{
	navigation.TabCustomers: {
		roles.Admin: gated,
		roles.Sales: {Create: true, Update: true},
	},
	navigation.TabEquipment: {
		roles.Admin:     gated,
		roles.Warehouse: editOnly,
	},
	navigation.TabInvoices: {
		roles.Admin:    crud,
		roles.Finance:  crud,
		roles.Customer: readOnly,
	},
	navigation.TabPayments: {
		roles.Finance: crud,
	},
	navigation.TabEnquiries: {
		roles.Admin:    {Update: true, Delete: true},
		roles.Sales:    editOnly,
		roles.Customer: {Create: true},
	},
	navigation.TabSalesOrders: {
		roles.Admin:     {Update: true, Delete: true},
		roles.Sales:     {Create: true, Update: true},
		roles.Warehouse: editOnly,
	},
	navigation.TabQuotations: {
		roles.Admin: {Approve: true},
		roles.Sales: {Create: true, Update: true},
	},
	navigation.TabContracts: {
		roles.Admin: gated,
		roles.Sales: {Create: true, Update: true},
	},
	navigation.TabEvents: {
		roles.Admin: crud,
	},
	navigation.TabUsers: {
		roles.Admin: crud,
	},
}

var approvalGated = map[navigation.Tab]bool{
	navigation.TabCustomers:  true,
	navigation.TabEquipment:  true,
	navigation.TabQuotations: true,
	navigation.TabContracts:  true,
}

// CapabilitiesFor resolves what role may do on tab.
func CapabilitiesFor(role roles.Role, tab navigation.Tab) Capabilities {
	if role == roles.SuperAdmin {
		if approvalGated[tab] {
			return gated
		}
		return crud
	}
	return capabilities[tab][role]
}

// Catalog builds entity panels against one backend client.
type Catalog struct {
	client    *backend.Client
	publisher events.Publisher
	logger    *slog.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(client *backend.Client, publisher events.Publisher, logger *slog.Logger) *Catalog {
	return &Catalog{client: client, publisher: publisher, logger: logger}
}

// Resource paths on the backend.
const (
	PathCustomers   = "/api/admin/customers"
	PathEquipment   = "/api/equipment"
	PathInvoices    = "/api/invoices"
	PathPayments    = "/api/finance/payments"
	PathEnquiries   = "/api/sales/enquiries"
	PathSalesOrders = "/api/sales/orders"
	PathQuotations  = "/api/sales/quotations"
	PathContracts   = "/api/contracts"
	// Listings and approval gates served under other prefixes.
	PathPendingQuotations = "/api/admin/quotations/pending"
	PathQuotationGate     = "/api/admin/quotations"
	PathContractList      = "/api/sales/contracts/"
	PathContractGate      = "/api/admin/contracts"
	PathEvents            = "/api/events"
	PathUsers             = "/api/auth/users"
)

// Entity returns the entity panel for tab as seen by role. Overview is not
// an entity panel.
func (c *Catalog) Entity(role roles.Role, tab navigation.Tab) (Panel, bool) {
	caps := CapabilitiesFor(role, tab)
	switch tab {
	case navigation.TabCustomers:
		return NewModule(Definition{
			Tab: tab, Title: "Customers", Noun: "customer",
			Columns: records.CustomerColumns, Fields: records.CustomerFields,
			Bind: records.BindCustomer, Caps: caps,
		}, backend.NewResource[records.Customer](c.client, "customers", PathCustomers), c.publisher, c.logger), true
	case navigation.TabEquipment:
		return NewModule(Definition{
			Tab: tab, Title: "Equipment", Noun: "equipment",
			Columns: records.EquipmentColumns, Fields: records.EquipmentFields,
			Bind: records.BindEquipment, Caps: caps,
		}, backend.NewResource[records.Equipment](c.client, "equipment", PathEquipment), c.publisher, c.logger), true
	case navigation.TabInvoices:
		return NewModule(Definition{
			Tab: tab, Title: "Invoices", Noun: "invoice",
			Columns: records.InvoiceColumns, Fields: records.InvoiceFields,
			Bind: records.BindInvoice, Caps: caps,
		}, backend.NewResource[records.Invoice](c.client, "invoices", PathInvoices), c.publisher, c.logger), true
	case navigation.TabPayments:
		return NewModule(Definition{
			Tab: tab, Title: "Payments", Noun: "payment",
			Columns: records.PaymentColumns, Fields: records.PaymentFields,
			Bind: records.BindPayment, Caps: caps,
		}, backend.NewResource[records.Payment](c.client, "payments", PathPayments), c.publisher, c.logger), true
	case navigation.TabEnquiries:
		return NewModule(Definition{
			Tab: tab, Title: "Enquiries", Noun: "enquiry",
			Columns: records.EnquiryColumns, Fields: records.EnquiryFields,
			Bind: records.BindEnquiry, Caps: caps,
		}, backend.NewResource[records.Enquiry](c.client, "enquiries", PathEnquiries), c.publisher, c.logger), true
	case navigation.TabSalesOrders:
		return NewModule(Definition{
			Tab: tab, Title: "Sales Orders", Noun: "sales order",
			Columns: records.SalesOrderColumns, Fields: records.SalesOrderFields,
			Bind: records.BindSalesOrder, Caps: caps, Workflow: records.Workflow,
		}, backend.NewResource[records.SalesOrder](c.client, "sales-orders", PathSalesOrders), c.publisher, c.logger), true
	case navigation.TabQuotations:
		return NewModule(Definition{
			Tab: tab, Title: "Quotations", Noun: "quotation",
			Columns: records.QuotationColumns, Fields: records.QuotationFields,
			Bind: records.BindQuotation, Caps: caps, Workflow: records.Workflow,
		}, c.quotations(role), c.publisher, c.logger), true
	case navigation.TabContracts:
		return NewModule(Definition{
			Tab: tab, Title: "Contracts", Noun: "contract",
			Columns: records.ContractColumns, Fields: records.ContractFields,
			Bind: records.BindContract, Caps: caps,
		}, c.contracts(), c.publisher, c.logger), true
	case navigation.TabEvents:
		return NewModule(Definition{
			Tab: tab, Title: "Events", Noun: "event",
			Columns: records.EventColumns, Fields: records.EventFields,
			Bind: records.BindEvent, Caps: caps,
		}, backend.NewResource[records.Event](c.client, "events", PathEvents), c.publisher, c.logger), true
	case navigation.TabUsers:
		return NewModule(Definition{
			Tab: tab, Title: "Users & Roles", Noun: "user",
			Columns: records.UserColumns, Fields: records.UserFields,
			Bind: records.BindUser, Caps: caps,
		}, backend.NewResource[records.User](c.client, "users", PathUsers), c.publisher, c.logger), true
	}
	return nil, false
}

// quotations lists only the quotations awaiting approval for admins.
func (c *Catalog) quotations(role roles.Role) *backend.Resource[records.Quotation] {
	opts := []backend.ResourceOption{backend.GateAt(PathQuotationGate)}
	if role == roles.Admin {
		opts = append(opts, backend.ListFrom(PathPendingQuotations))
	}
	return backend.NewResource[records.Quotation](c.client, "quotations", PathQuotations, opts...)
}

func (c *Catalog) contracts() *backend.Resource[records.Contract] {
	return backend.NewResource[records.Contract](c.client, "contracts", PathContracts,
		backend.ListFrom(PathContractList), backend.GateAt(PathContractGate))
}

// Panel returns the panel for tab, including the overview.
func (c *Catalog) Panel(role roles.Role, tab navigation.Tab) (Panel, bool) {
	if tab == navigation.TabOverview {
		return c.Overview(role), true
	}
	if !navigation.Known(role, tab) {
		return nil, false
	}
	return c.Entity(role, tab)
}

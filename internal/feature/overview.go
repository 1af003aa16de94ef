package feature

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/navigation"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/roles"
	"github.com/rentaldesk/rentaldesk/internal/shared"
)

// SummaryFetcher loads a role dashboard summary. *backend.Client satisfies it.
type SummaryFetcher interface {
	Summary(ctx context.Context, segment string) (map[string]any, error)
}

// summarySegments maps roles to their /api/<segment>/dashboard endpoint.
var summarySegments = map[roles.Role]string{
	roles.Sales:     "sales",
	roles.Warehouse: "warehouse",
	roles.Finance:   "finance",
	roles.Customer:  "customers",
}

// Counter sizes one entity collection.
type Counter struct {
	Label string
	Count func(ctx context.Context) (int, error)
}

// CountOf adapts a list source into a Counter.
func CountOf[T any](label string, source interface {
	List(ctx context.Context) ([]T, error)
}) Counter {
	return Counter{Label: label, Count: func(ctx context.Context) (int, error) {
		items, err := source.List(ctx)
		return len(items), err
	}}
}

// Overview is the landing panel: role summary figures and collection sizes,
// fetched concurrently.
type Overview struct {
	role     roles.Role
	segment  string
	summary  SummaryFetcher
	counters []Counter
	logger   *slog.Logger

	mu     sync.Mutex
	stats  []Stat
	notice *shared.FlashMessage
	loaded bool
}

// NewOverview constructs an overview panel. summary may be nil.
func NewOverview(role roles.Role, summary SummaryFetcher, counters []Counter, logger *slog.Logger) *Overview {
	if logger == nil {
		logger = slog.Default()
	}
	return &Overview{
		role:     role,
		segment:  summarySegments[role],
		summary:  summary,
		counters: counters,
		logger:   logger,
	}
}

// Overview builds the overview panel for role from the role's menu.
func (c *Catalog) Overview(role roles.Role) *Overview {
	var counters []Counter
	for _, entry := range navigation.Menu(role) {
		if entry.Tab == navigation.TabOverview {
			continue
		}
		if counter, ok := c.counter(role, entry); ok {
			counters = append(counters, counter)
		}
	}
	return NewOverview(role, c.client, counters, c.logger)
}

func (c *Catalog) counter(role roles.Role, entry navigation.MenuEntry) (Counter, bool) {
	switch entry.Tab {
	case navigation.TabCustomers:
		return CountOf[records.Customer](entry.Title, backend.NewResource[records.Customer](c.client, "customers", PathCustomers)), true
	case navigation.TabEquipment:
		return CountOf[records.Equipment](entry.Title, backend.NewResource[records.Equipment](c.client, "equipment", PathEquipment)), true
	case navigation.TabInvoices:
		return CountOf[records.Invoice](entry.Title, backend.NewResource[records.Invoice](c.client, "invoices", PathInvoices)), true
	case navigation.TabPayments:
		return CountOf[records.Payment](entry.Title, backend.NewResource[records.Payment](c.client, "payments", PathPayments)), true
	case navigation.TabEnquiries:
		return CountOf[records.Enquiry](entry.Title, backend.NewResource[records.Enquiry](c.client, "enquiries", PathEnquiries)), true
	case navigation.TabSalesOrders:
		return CountOf[records.SalesOrder](entry.Title, backend.NewResource[records.SalesOrder](c.client, "sales-orders", PathSalesOrders)), true
	case navigation.TabQuotations:
		return CountOf[records.Quotation](entry.Title, c.quotations(role)), true
	case navigation.TabContracts:
		return CountOf[records.Contract](entry.Title, c.contracts()), true
	case navigation.TabEvents:
		return CountOf[records.Event](entry.Title, backend.NewResource[records.Event](c.client, "events", PathEvents)), true
	case navigation.TabUsers:
		return CountOf[records.User](entry.Title, backend.NewResource[records.User](c.client, "users", PathUsers)), true
	}
	return Counter{}, false
}

func (o *Overview) Tab() navigation.Tab { return navigation.TabOverview }

func (o *Overview) Entity() string { return "overview" }

func (o *Overview) Mount(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats, o.notice, o.loaded = nil, nil, false
	o.load(ctx)
}

func (o *Overview) Refresh(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.load(ctx)
}

// Perform is a no-op: the overview has no actions.
func (o *Overview) Perform(context.Context, Actor, Action, string, url.Values) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notice = &shared.FlashMessage{Kind: "error", Message: "The overview has no actions."}
}

func (o *Overview) load(ctx context.Context) {
	if backend.TokenFromContext(ctx) == "" {
		return
	}

	var (
		summary map[string]any
		counts  = make([]string, len(o.counters))
		mu      sync.Mutex
		failed  []error
	)
	record := func(err error) {
		mu.Lock()
		failed = append(failed, err)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(4)
	if o.segment != "" && o.summary != nil {
		g.Go(func() error {
			out, err := o.summary.Summary(ctx, o.segment)
			if err != nil {
				record(err)
				return nil
			}
			summary = out
			return nil
		})
	}
	for i, counter := range o.counters {
		i, counter := i, counter
		g.Go(func() error {
			n, err := counter.Count(ctx)
			if err != nil {
				record(err)
				counts[i] = "-"
				return nil
			}
			counts[i] = records.FormatCount(n)
			return nil
		})
	}
	_ = g.Wait()

	stats := make([]Stat, 0, len(o.counters)+len(summary))
	for i, counter := range o.counters {
		stats = append(stats, Stat{Label: counter.Label, Value: counts[i]})
	}
	stats = append(stats, summaryStats(summary)...)
	o.stats = stats
	o.loaded = true
	o.notice = nil

	for _, err := range failed {
		if errors.Is(err, backend.ErrNoToken) {
			continue
		}
		o.logger.Warn("feature: overview figure failed", slog.String("role", string(o.role)), slog.Any("error", err))
		o.notice = errorNotice(err, "load every figure")
	}
}

func (o *Overview) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Kind:   "overview",
		Tab:    navigation.TabOverview,
		Title:  "Overview",
		Stats:  append([]Stat(nil), o.stats...),
		Loaded: o.loaded,
		Notice: o.notice,
	}
}

var _ Panel = (*Overview)(nil)

// summaryStats keeps scalar figures, sorted by label.
func summaryStats(summary map[string]any) []Stat {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Stat, 0, len(keys))
	for _, k := range keys {
		out = append(out, Stat{Label: labelize(k), Value: formatFigure(k, summary[k])})
	}
	return out
}

func formatFigure(key string, v any) string {
	switch val := v.(type) {
	case float64:
		lower := strings.ToLower(key)
		if strings.Contains(lower, "revenue") || strings.Contains(lower, "amount") || strings.Contains(lower, "value") {
			return records.FormatMoney(decimal.NewFromFloat(val))
		}
		if val == float64(int64(val)) {
			return records.FormatCount(int(val))
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case string:
		return val
	}
	return "-"
}

// labelize turns "outstandingInvoices" or "active_rentals" into
// "Outstanding invoices" / "Active rentals".
func labelize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

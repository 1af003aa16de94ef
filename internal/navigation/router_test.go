package navigation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/roles"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.Notification
}

func (p *recordingPublisher) Publish(n events.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func TestEveryMenuStartsWithOverview(t *testing.T) {
	for _, role := range roles.All {
		menu := Menu(role)
		require.NotEmpty(t, menu, role)
		assert.Equal(t, TabOverview, menu[0].Tab, role)
		for _, entry := range menu {
			assert.Equal(t, role.HomePath(), entry.Route)
			assert.NotEmpty(t, entry.Title)
		}
	}
}

func TestSelectFragmentEqualsTabKeyForEveryEntry(t *testing.T) {
	pub := &recordingPublisher{}
	router := NewRouter(pub)
	for _, role := range roles.All {
		state := NewState()
		for _, entry := range Menu(role) {
			loc, ok := router.Select(state, role, entry.Tab, events.Scope{Session: "s1"}, "page")
			require.True(t, ok, "%s/%s", role, entry.Tab)
			assert.Equal(t, string(entry.Tab), loc.Fragment)
			assert.Equal(t, role.HomePath(), loc.Path)
			assert.Equal(t, entry.Tab, router.Active(state, role))
		}
	}
}

func TestSelectAdminInvoices(t *testing.T) {
	pub := &recordingPublisher{}
	router := NewRouter(pub)
	state := NewState()

	loc, ok := router.Select(state, roles.Admin, TabInvoices, events.Scope{Session: "s1"}, "page-1")
	require.True(t, ok)
	assert.Equal(t, "/dashboard/admin#invoices", loc.String())

	require.Len(t, pub.sent, 1)
	n := pub.sent[0]
	assert.Equal(t, events.TabSelected, n.Kind)
	assert.Equal(t, "invoices", n.Tab)
	assert.Equal(t, roles.Admin, n.Scope.Role)
	assert.Equal(t, "s1", n.Scope.Session)
	assert.Equal(t, "page-1", n.Origin)

	// Reload with the fragment lands on the same tab.
	reloaded := NewState()
	assert.Equal(t, TabInvoices, router.Initial(reloaded, roles.Admin, "#invoices"))
	assert.Equal(t, TabInvoices, router.Active(reloaded, roles.Admin))
}

func TestSelectUnknownTabIsIgnored(t *testing.T) {
	pub := &recordingPublisher{}
	router := NewRouter(pub)
	state := NewState()
	_, ok := router.Select(state, roles.Finance, TabPayments, events.Scope{}, "")
	require.True(t, ok)

	_, ok = router.Select(state, roles.Finance, Tab("nope"), events.Scope{}, "")
	assert.False(t, ok)
	_, ok = router.Select(state, roles.Finance, TabUsers, events.Scope{}, "")
	assert.False(t, ok)

	assert.Equal(t, TabPayments, router.Active(state, roles.Finance))
	assert.Len(t, pub.sent, 1)
}

func TestInitialDefaultsToOverview(t *testing.T) {
	router := NewRouter(nil)
	cases := []string{"", "#", "#unknown", "users"}
	for _, fragment := range cases {
		state := NewState()
		assert.Equal(t, TabOverview, router.Initial(state, roles.Customer, fragment), fragment)
	}
}

func TestRoleNamespacesAreIndependent(t *testing.T) {
	router := NewRouter(nil)
	state := NewState()
	_, ok := router.Select(state, roles.Sales, TabEnquiries, events.Scope{}, "")
	require.True(t, ok)

	assert.Equal(t, TabEnquiries, router.Active(state, roles.Sales))
	assert.Equal(t, TabOverview, router.Active(state, roles.Warehouse))
}

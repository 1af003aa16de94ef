package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptsClaimAndSlug(t *testing.T) {
	r, ok := Parse("super-admin")
	assert.True(t, ok)
	assert.Equal(t, SuperAdmin, r)

	r, ok = Parse("Super_Admin")
	assert.True(t, ok)
	assert.Equal(t, SuperAdmin, r)

	r, ok = Parse(" finance ")
	assert.True(t, ok)
	assert.Equal(t, Finance, r)

	_, ok = Parse("root")
	assert.False(t, ok)
	_, ok = Parse("")
	assert.False(t, ok)
}

func TestHomePathUsesSlug(t *testing.T) {
	assert.Equal(t, "/dashboard/super-admin", SuperAdmin.HomePath())
	assert.Equal(t, "/dashboard/warehouse", Warehouse.HomePath())
}

func TestCanOpen(t *testing.T) {
	for _, target := range All {
		assert.True(t, SuperAdmin.CanOpen(target), target)
	}
	assert.True(t, Sales.CanOpen(Sales))
	assert.False(t, Sales.CanOpen(Admin))
	assert.False(t, Customer.CanOpen(Finance))
	assert.False(t, Role("ghost").CanOpen(Role("ghost")))
}

// Package roles enumerates the dashboard roles a user can hold.
package roles

import "strings"

// Role identifies which dashboard and menu a user sees.
type Role string

// Known roles. The string value matches the role claim issued by the backend.
const (
	Admin      Role = "admin"
	Sales      Role = "sales"
	Warehouse  Role = "warehouse"
	Finance    Role = "finance"
	Customer   Role = "customer"
	SuperAdmin Role = "super_admin"
)

// All lists every role in menu order.
var All = []Role{SuperAdmin, Admin, Sales, Warehouse, Finance, Customer}

// Parse accepts both the claim form ("super_admin") and the URL slug
// ("super-admin"). Matching is case-insensitive.
func Parse(raw string) (Role, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for _, r := range All {
		if string(r) == normalized {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := Parse(string(r))
	return ok && string(r) == strings.ToLower(string(r))
}

// Slug is the URL path segment for the role's dashboard.
func (r Role) Slug() string {
	return strings.ReplaceAll(string(r), "_", "-")
}

// HomePath is the dashboard path for the role.
func (r Role) HomePath() string {
	return "/dashboard/" + r.Slug()
}

// Label is the human readable name shown in the page header.
func (r Role) Label() string {
	switch r {
	case Admin:
		return "Admin"
	case Sales:
		return "Sales"
	case Warehouse:
		return "Warehouse"
	case Finance:
		return "Finance"
	case Customer:
		return "Customer"
	case SuperAdmin:
		return "Super Admin"
	default:
		return string(r)
	}
}

// CanOpen reports whether a user holding r may open the dashboard of target.
// Super admins can open every dashboard.
func (r Role) CanOpen(target Role) bool {
	if r == SuperAdmin {
		return target.Valid()
	}
	return r == target && r.Valid()
}

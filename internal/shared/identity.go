package shared

import "github.com/rentaldesk/rentaldesk/internal/roles"

// Identity is the authenticated user held in the session.
type Identity struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  roles.Role `json:"role"`
}

// DisplayName falls back to the e-mail address, then the ID, when no name
// was issued.
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	}
	return i.ID
}

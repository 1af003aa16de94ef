package records

import (
	"net/url"
	"time"
)

// User is a staff or customer login account.
type User struct {
	ID        string     `json:"id" validate:"required"`
	Email     string     `json:"email" validate:"required"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	Phone     *string    `json:"phone"`
	CreatedAt *time.Time `json:"created_at"`
}

var userRoles = []string{"super_admin", "admin", "sales", "warehouse", "finance", "customer"}

// UserColumns are the table headings matching User.Cells.
var UserColumns = []string{"Name", "E-mail", "Role", "Phone", "Created"}

// UserFields describe the user form.
var UserFields = []Field{
	{Name: "email", Label: "E-mail", Type: "email", Required: true, CreateOnly: true},
	{Name: "full_name", Label: "Full name", Type: "text", Required: true},
	{Name: "role", Label: "Role", Type: "select", Options: userRoles, Required: true},
	{Name: "phone", Label: "Phone", Type: "tel"},
	{Name: "password", Label: "Password", Type: "password", Required: true, CreateOnly: true},
}

func (u User) Key() string { return u.ID }

func (u User) Cells() []string {
	phone := deref(u.Phone)
	if phone == "" {
		phone = "-"
	}
	return []string{u.FullName, u.Email, humanize(u.Role), phone, FormatDate(u.CreatedAt)}
}

func (u User) FormValues() map[string]string {
	return map[string]string{
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"phone":     deref(u.Phone),
	}
}

// UserInput is the create payload.
type UserInput struct {
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"full_name" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=super_admin admin sales warehouse finance customer"`
	Phone    *string `json:"phone,omitempty"`
	Password string  `json:"password" validate:"required,min=8"`
}

// UserUpdate is the update payload.
type UserUpdate struct {
	FullName string  `json:"full_name" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=super_admin admin sales warehouse finance customer"`
	Phone    *string `json:"phone,omitempty"`
}

// BindUser reads and validates a user form.
func BindUser(values url.Values, create bool) (any, error) {
	f := newForm(values)
	if !create {
		up := UserUpdate{
			FullName: f.str("full_name"),
			Role:     f.str("role"),
			Phone:    f.optStr("phone"),
		}
		if err := f.check(up); err != nil {
			return nil, err
		}
		return up, nil
	}
	in := UserInput{
		Email:    f.str("email"),
		FullName: f.str("full_name"),
		Role:     f.str("role"),
		Phone:    f.optStr("phone"),
		Password: values.Get("password"),
	}
	if err := f.check(in); err != nil {
		return nil, err
	}
	return in, nil
}

package entity

import "time"

// User represents a member of a company. Approvers are ordinary users
// holding one of the approval roles.
type User struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	ManagerID *int64    `json:"manager_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Company owns users, categories, expenses and their approval state.
type Company struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"default_currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to every request.
type Principal struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
}

// IsApprover reports whether the principal's role can act on approval requests
func (p Principal) IsApprover() bool {
	switch p.Role {
	case RoleManager, RoleFinance, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

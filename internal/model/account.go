package model

import "time"

// Role is the closed set of actor roles
type Role string

const (
	RoleStandard   Role = "Standard"   // Account holder, acts on own loans only
	RoleAccountant Role = "Accountant" // Reviewer, bypasses ownership checks
)

// IsValid reports whether r is one of the defined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleStandard, RoleAccountant:
		return true
	}
	return false
}

// Account represents a registered account holder or accountant
type Account struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"` // Never expose password hash
	Blocked      bool      `json:"blocked"`
	Role         Role      `json:"role"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

// IsAccountant returns true if the account has the accountant role
func (a *Account) IsAccountant() bool {
	return a.Role == RoleAccountant
}

// Actor returns the identity used when this account performs an operation
func (a *Account) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role}
}

// AccountPublic is the externally visible view of an account
type AccountPublic struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Blocked   bool      `json:"blocked"`
	Role      Role      `json:"role"`
	CreatedOn time.Time `json:"created_on"`
}

// ToPublic converts an Account to its public representation
func (a *Account) ToPublic() *AccountPublic {
	return &AccountPublic{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Username:  a.Username,
		Email:     a.Email,
		Age:       a.Age,
		Blocked:   a.Blocked,
		Role:      a.Role,
		CreatedOn: a.CreatedOn,
	}
}

// Actor is the authenticated identity an operation executes on behalf of
type Actor struct {
	ID   string
	Role Role
}

// IsAccountant returns true if the actor holds the accountant role
func (a Actor) IsAccountant() bool {
	return a.Role == RoleAccountant
}

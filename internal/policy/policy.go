// Package policy decides whether an actor may act on a loan.
//
// Decisions are pure functions of the actor and the loan owner. Nothing
// here touches storage; callers load the loan first and ask afterwards.
package policy

import "github.com/forgo/lending/api/internal/model"

// Operation is an action performed on an existing loan
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// IsValid reports whether op is one of the defined operations
func (op Operation) IsValid() bool {
	switch op {
	case OpRead, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Allowed reports whether actor may perform op on a loan owned by ownerID.
// Accountants may act on any loan. Standard actors may act on their own
// loans only. Unknown roles and operations are denied.
func Allowed(actor model.Actor, ownerID string, op Operation) bool {
	if !op.IsValid() {
		return false
	}
	switch actor.Role {
	case model.RoleAccountant:
		return true
	case model.RoleStandard:
		return actor.ID != "" && actor.ID == ownerID
	}
	return false
}

// CanListAll reports whether actor sees every loan when listing
func CanListAll(actor model.Actor) bool {
	return actor.IsAccountant()
}

// RequireAccountant reports whether actor may use an accountant-only entry
// point: blocking accounts, creating accountants, listing another account's
// loans, changing loan status.
func RequireAccountant(actor model.Actor) bool {
	return actor.IsAccountant()
}

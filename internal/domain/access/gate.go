// Package access decides which roles may create and resolve licenses.
package access

import "errors"

var ErrForbidden = errors.New("forbidden")

type Action string

const (
	ActionCreate     Action = "create"
	ActionTransition Action = "transition"
)

// Allowed reports whether role may perform action. Roles outside the enum
// are handled as students.
func Allowed(role Role, action Action) bool {
	if !role.Valid() {
		role = RoleStudent
	}
	switch action {
	case ActionCreate:
		return role == RoleStudent
	case ActionTransition:
		return role == RoleReviewer || role == RoleAdmin
	}
	return false
}

// Authorize is Allowed in error form. The error never says why.
func Authorize(actor Actor, action Action) error {
	if !Allowed(actor.Role, action) {
		return ErrForbidden
	}
	return nil
}

// CanView reports whether actor may read a license owned by ownerID.
func CanView(actor Actor, ownerID int64) bool {
	if actor.Role == RoleReviewer || actor.Role == RoleAdmin {
		return true
	}
	return actor.ID == ownerID
}

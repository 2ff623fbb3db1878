package access

import "strings"

// Role is the closed set of roles the core reasons about. Raw role strings
// from tokens must go through NormalizeRole first.
type Role string

const (
	RoleStudent  Role = "student"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

var aliases = map[string]Role{
	"student":    RoleStudent,
	"alumno":     RoleStudent,
	"estudiante": RoleStudent,

	"reviewer":    RoleReviewer,
	"teacher":     RoleReviewer,
	"secretary":   RoleReviewer,
	"profesor":    RoleReviewer,
	"secretario":  RoleReviewer,
	"secretaria":  RoleReviewer,
	"funcionario": RoleReviewer,

	"admin":         RoleAdmin,
	"administrador": RoleAdmin,
}

// NormalizeRole maps a raw role name onto Role. ok is false for anything
// unmapped; callers must reject such identities.
func NormalizeRole(raw string) (Role, bool) {
	r, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	return r, ok
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleReviewer || r == RoleAdmin
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role Role
}

package model

import "strings"

// Role is the closed set of authorities a user can hold.
type Role string

const (
	RoleUser      Role = "ROLE_USER"
	RoleRecruiter Role = "ROLE_RECRUITER"
	RoleAdmin     Role = "ROLE_ADMIN"
)

// Frontend labels used in API responses and OAuth redirects.
const (
	LabelCandidate = "candidate"
	LabelRecruiter = "recruiter"
	LabelAdmin     = "admin"
)

// roleLabels is the single mapping from role to frontend label.
var roleLabels = map[Role]string{
	RoleUser:      LabelCandidate,
	RoleRecruiter: LabelRecruiter,
	RoleAdmin:     LabelAdmin,
}

// roleAliases lists every accepted spelling for each role. Bare names cover
// records and tokens written before the ROLE_ prefix was introduced.
var roleAliases = map[string]Role{
	"role_user":      RoleUser,
	"user":           RoleUser,
	"candidate":      RoleUser,
	"role_recruiter": RoleRecruiter,
	"recruiter":      RoleRecruiter,
	"role_admin":     RoleAdmin,
	"admin":          RoleAdmin,
}

// Roles returns all defined roles in a stable order.
func Roles() []Role { return []Role{RoleUser, RoleRecruiter, RoleAdmin} }

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the frontend-facing label for r. Unknown roles map to the
// candidate label.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return LabelCandidate
}

func (r Role) String() string { return string(r) }

// ParseRole maps any accepted spelling to a Role.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// RoleOrDefault is ParseRole with a RoleUser fallback, used for legacy
// records and tokens that carry no usable role.
func RoleOrDefault(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return RoleUser
}

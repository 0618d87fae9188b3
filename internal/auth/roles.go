package auth

import "strings"

// Role is a caller's permission level. Viewers price stays and download rate
// cards, operators also freeze session prices, admins author plans and holidays.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// roleLadder lists roles from least to most privileged.
var roleLadder = []Role{RoleViewer, RoleOperator, RoleAdmin}

// ParseRole accepts a role name in any case.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role.level() == 0 {
		return "", false
	}
	return role, true
}

// Satisfies reports whether r is at least as privileged as required.
func (r Role) Satisfies(required Role) bool {
	level := r.level()
	return level > 0 && level >= required.level()
}

func (r Role) level() int {
	for i, candidate := range roleLadder {
		if candidate == r {
			return i + 1
		}
	}
	return 0
}

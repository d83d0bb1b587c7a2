package domain

// RoleSet is the explicit set of roles an endpoint requires.
type RoleSet map[string]bool

func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = true
	}
	return set
}

// Allows is the authorization decision: evaluated only after the request's
// identity has been resolved.
func (rs RoleSet) Allows(role string) bool {
	return rs[role]
}

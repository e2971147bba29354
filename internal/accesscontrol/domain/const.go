// Package domain defines access control domain models.
// Implements role-based access control with clients and bearer tokens.
package domain

// Role defines the level of access a client has to control plane resources.
type Role string

const (
	// RoleAdmin allows full access, including client management and policy writes.
	RoleAdmin Role = "admin"

	// RoleOperator allows mutating configs, secrets, rate limit rules, and policies.
	RoleOperator Role = "operator"

	// RoleReader allows read-only access, including secret reads and policy evaluation.
	RoleReader Role = "reader"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[Role]int{
	RoleReader:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// Allows reports whether a client holding this role satisfies the required role.
// Roles are strictly hierarchical: admin > operator > reader.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

package auth

// Requirement is a pure predicate over a resolved identity. Requirements
// compose; a request passes only when every attached requirement allows it.
type Requirement func(Identity) bool

// Authenticated allows any resolved identity.
func Authenticated() Requirement {
	return func(id Identity) bool {
		return id.ID != ""
	}
}

// RoleIs allows only identities holding exactly the given role.
func RoleIs(role Role) Requirement {
	return func(id Identity) bool {
		return id.ID != "" && id.Role == role
	}
}

// AllOf combines requirements; all must pass.
func AllOf(reqs ...Requirement) Requirement {
	return func(id Identity) bool {
		for _, req := range reqs {
			if !req(id) {
				return false
			}
		}
		return true
	}
}

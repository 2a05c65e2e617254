// Package policy decides who may act on whose credentials. Self-service
// password changes are always allowed; everything else requires membership
// in the configured admin group.
package policy

import "fmt"

// GroupDirectory is the read side of the group file the policy consults.
type GroupDirectory interface {
	Exists(name string) bool
	IsMember(user, group string) bool
}

type Policy struct {
	AdminGroup string
}

func New(adminGroup string) *Policy {
	return &Policy{AdminGroup: adminGroup}
}

// IsAdmin reports whether identity belongs to the admin group. A missing
// admin group is a configuration problem, not a membership failure, and the
// reason says so explicitly so the operator can diagnose it.
func (p *Policy) IsAdmin(dir GroupDirectory, identity string) (bool, string) {
	if !dir.Exists(p.AdminGroup) {
		return false, fmt.Sprintf("Sorry, admin group '%s' is not defined. You cannot change someone else's password or create new users.", p.AdminGroup)
	}
	if !dir.IsMember(identity, p.AdminGroup) {
		return false, fmt.Sprintf("Sorry, you must belong to group '%s' to change someone else's password or create new users.", p.AdminGroup)
	}
	return true, ""
}

// CanActOnTarget reports whether identity may change target's password.
// Changing one's own existing password is always allowed; acting on another
// user, or creating any account, requires admin membership.
func (p *Policy) CanActOnTarget(dir GroupDirectory, identity, target string, newAccount bool) (bool, string) {
	if identity == target && !newAccount {
		return true, ""
	}
	return p.IsAdmin(dir, identity)
}

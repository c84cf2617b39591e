// Package access decides whether an actor may perform an operation on a
// resource. It has no storage dependency: callers load the resource owner
// first and pass it in.
package access

import "go-resume-backend/internal/domain"

type Decision int

const (
	NotApplicable Decision = iota
	Allow
	Forbid
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Forbid:
		return "forbid"
	default:
		return "not_applicable"
	}
}

// Permitted reports whether the caller may proceed.
func (d Decision) Permitted() bool {
	return d != Forbid
}

type OwnershipMode int

const (
	// OwnershipNone skips the ownership axis
	OwnershipNone OwnershipMode = iota
	// OwnershipApplicant requires applicants to own the resource; recruiters pass
	OwnershipApplicant
	// OwnershipStrict requires every role to own the resource
	OwnershipStrict
)

// Rule combines a coarse role whitelist with a fine ownership check.
// Both axes must pass.
type Rule struct {
	Roles     []string
	Ownership OwnershipMode
}

var knownRoles = map[string]bool{
	domain.RoleApplicant: true,
	domain.RoleRecruiter: true,
}

// Common rules
var (
	AnyRole       = Rule{}
	RecruiterOnly = Rule{Roles: []string{domain.RoleRecruiter}}
	ViewResume    = Rule{Ownership: OwnershipApplicant}
	OwnerOnly     = Rule{Ownership: OwnershipStrict}
)

// Check evaluates rule for actor against a resource owned by ownerID.
// ownerID may be empty when no resource is involved; ownership rules then
// forbid, since nothing can be proven owned.
func Check(actor domain.Actor, ownerID string, rule Rule) Decision {
	if !knownRoles[actor.Role] || actor.ID == "" {
		return Forbid
	}
	if len(rule.Roles) == 0 && rule.Ownership == OwnershipNone {
		return NotApplicable
	}

	if len(rule.Roles) > 0 && !hasRole(actor.Role, rule.Roles) {
		return Forbid
	}

	switch rule.Ownership {
	case OwnershipApplicant:
		if actor.Role == domain.RoleApplicant && ownerID != actor.ID {
			return Forbid
		}
	case OwnershipStrict:
		if ownerID != actor.ID {
			return Forbid
		}
	}
	return Allow
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

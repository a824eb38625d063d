package post

import "github.com/reelfeed/reelfeed/account"

type (
	// Decision is the outcome of an ownership check.
	Decision int
)

const (
	Denied Decision = iota
	Allowed
)

// Authorize decides whether caller may mutate a resource owned by
// owner. Exact equality over the opaque id type, nothing else: no
// roles, no hierarchies. Callers are expected to have checked that
// the resource exists first, so a miss here maps to forbidden rather
// than not-found.
func Authorize(caller, owner account.ID) Decision {
	if len(caller) == 0 || len(owner) == 0 {
		return Denied
	}
	if caller == owner {
		return Allowed
	}
	return Denied
}

package service

import "github.com/t2m/license-platform/internal/core/domain"

// Authorize reports whether any permission in the set grants the request.
// Pure computation over the already-resolved set: no I/O, no state, and the
// same inputs always produce the same decision. This is the single
// authorization decision point; the HTTP middleware only relays its answer.
func Authorize(perms []domain.Permission, method, path string) bool {
	for _, p := range perms {
		if p.Matches(method, path) {
			return true
		}
	}
	return false
}

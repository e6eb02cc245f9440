package domain

import "strings"

// Permission is the atomic authorization unit: an HTTP method plus a route
// pattern. Patterns may contain parameter segments (":id") that match any
// single path segment.
type Permission struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Module string `json:"module,omitempty"`
	AuditStamps
}

// Matches reports whether the permission grants the given request. The method
// must match exactly; the path is compared segment by segment so that
// "/v1/users/:id" matches "/v1/users/42" but not "/v1/users" or
// "/v1/users/42/sessions".
func (p Permission) Matches(method, path string) bool {
	if !strings.EqualFold(p.Method, method) {
		return false
	}
	want := splitPath(p.Path)
	got := splitPath(path)
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

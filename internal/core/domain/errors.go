package domain

import "errors"

// Business-rule failures are terminal for the request and never retried.
var (
	// ErrInvalidCredentials covers both "no such user" and "wrong password"
	// so callers cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidSession means the presented refresh token is not a member of
	// the owner's session list. Possible reuse or theft; always fail closed.
	ErrInvalidSession = errors.New("invalid session")

	// ErrNotFound is returned for absent and soft-deleted records alike.
	ErrNotFound = errors.New("not found")

	ErrEmailTaken          = errors.New("email already registered")
	ErrRoleExists          = errors.New("role already exists")
	ErrDuplicatePermission = errors.New("permission already exists for method and path")
	ErrForbidden           = errors.New("access forbidden")
)

// ErrUnavailable wraps transient storage failures (timeouts, connectivity).
// They propagate to the HTTP layer unretried so it can decide on backoff.
var ErrUnavailable = errors.New("storage unavailable")

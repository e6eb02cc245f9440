package ports

import "context"

// SessionStore keeps the per-user ordered list of live refresh tokens,
// newest last. Implementations must serialize concurrent mutations per user
// (atomic single-document updates or per-key locking); operations on
// different users are independent.
type SessionStore interface {
	// Add appends token and evicts from the front until the list is within
	// the configured cap. Append and trim are one atomic step.
	Add(ctx context.Context, userID, token string) error

	// Rotate replaces the first occurrence of old with new, preserving
	// position. Returns false when old is not present; the caller must treat
	// that as an authorization failure, not retry with Add.
	Rotate(ctx context.Context, userID, old, new string) (bool, error)

	// Remove deletes token if present. Removing an absent token is a no-op.
	Remove(ctx context.Context, userID, token string) error

	// Contains reports whether token is currently a live session for userID.
	Contains(ctx context.Context, userID, token string) (bool, error)

	// PruneExpired removes every token for which isLive returns false.
	// Best-effort: used by the background sweeper, not correctness-critical.
	PruneExpired(ctx context.Context, isLive func(token string) bool) error
}

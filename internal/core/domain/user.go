package domain

import "time"

// ActorRef identifies who performed an audited mutation (create/update/delete).
type ActorRef struct {
	ID    string `json:"id" bson:"id"`
	Email string `json:"email" bson:"email"`
}

// AuditStamps is embedded in every soft-deletable entity.
type AuditStamps struct {
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy ActorRef   `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy ActorRef   `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	IsDeleted bool       `json:"-" bson:"is_deleted"`
	DeletedAt *time.Time `json:"-" bson:"deleted_at,omitempty"`
	DeletedBy *ActorRef  `json:"-" bson:"deleted_by,omitempty"`
}

// User models an account holder. Sessions holds the active refresh tokens in
// recency order (newest last); membership in it is the sole authority for
// refresh-token validity. The list is capped — see ports.SessionStore.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone,omitempty"`
	PasswordHash string   `json:"-"`
	RoleID       string   `json:"role_id"`
	Sessions     []string `json:"-"`
	AuditStamps
}

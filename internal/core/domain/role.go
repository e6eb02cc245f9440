package domain

// System role names provisioned by the seeder. Arbitrary custom roles may be
// created alongside them.
const (
	RoleAdmin        = "ADMIN"
	RoleUser         = "USER"
	RoleCollaborator = "CTV"
)

// Role aggregates permissions under a unique name. An inactive role still
// authenticates its users but resolves to an empty permission set.
type Role struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	IsActive      bool     `json:"is_active"`
	PermissionIDs []string `json:"permission_ids"`
	AuditStamps
}

// DedupePermissionIDs returns ids with duplicates removed, first occurrence
// wins. Roles never store the same permission reference twice.
func DedupePermissionIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package models

import "time"

// Club roles. The creator of a club is stored as its owner member.
const (
	RoleOwner  = "owner"
	RoleCoach  = "coach"
	RoleMember = "member"
)

// ValidMemberRole reports whether role may be granted through AddMember.
func ValidMemberRole(role string) bool {
	return role == RoleCoach || role == RoleMember
}

type Club struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Permissions tells a client what the caller may do with an entity.
type Permissions struct {
	CanView   bool `json:"canView"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
	CanShare  bool `json:"canShare"`
}

package models

import "time"

type TeamRole string

const (
	RoleAdmin  TeamRole = "admin"
	RoleEditor TeamRole = "editor"
	RoleViewer TeamRole = "viewer"
)

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

// TeamMember ties a user to a team. Email is denormalized from the users
// table at insert time so member lists and invitation cleanup do not need a
// join against auth data.
type TeamMember struct {
	ID        uint64       `gorm:"primarykey" json:"id"`
	TeamID    uint64       `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID    uint64       `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"user_id"`
	Email     string       `gorm:"type:varchar(255);not null" json:"email"`
	Role      TeamRole     `gorm:"type:varchar(20);not null" json:"role"`
	Status    MemberStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CanChangeRoleOf reports whether a member with role actor may change the
// role of a member currently holding target. Editors may manage anyone
// except admins; viewers manage nobody.
func (actor TeamRole) CanChangeRoleOf(target TeamRole) bool {
	switch actor {
	case RoleAdmin:
		return true
	case RoleEditor:
		return target != RoleAdmin
	default:
		return false
	}
}

// IsValidRole reports whether s is one of the known team roles.
func IsValidRole(s string) bool {
	switch TeamRole(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

package models

import "time"

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
)

// Invitation is a pending offer of team membership keyed by email. The token
// is embedded in the emailed accept link and lets a not-yet-registered user
// prove they received the invite.
type Invitation struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	TeamID    uint64           `gorm:"not null;index" json:"team_id"`
	Email     string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Role      TeamRole         `gorm:"type:varchar(20);not null" json:"role"`
	Status    InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Token     string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectVisibility string

const (
	VisibilityTeam   ProjectVisibility = "team"
	VisibilityPublic ProjectVisibility = "public"
)

type Project struct {
	ID         uint64            `gorm:"primarykey" json:"id"`
	Name       string            `gorm:"type:varchar(255);not null" json:"name"`
	Slug       string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	TeamID     uint64            `gorm:"not null;index" json:"team_id"`
	CreatorID  uint64            `gorm:"not null" json:"creator_id"`
	Visibility ProjectVisibility `gorm:"type:varchar(20);not null;default:'team'" json:"visibility"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Team     Team      `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Features []Feature `gorm:"foreignKey:ProjectID" json:"features,omitempty"`
}

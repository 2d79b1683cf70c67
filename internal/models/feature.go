package models

import "time"

// Feature is an ordered work breakdown unit under a project. Order is a sort
// hint, not a uniqueness-bearing key.
type Feature struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	ProjectID uint64    `gorm:"not null;index" json:"project_id"`
	Order     int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Tasks   []Task  `gorm:"foreignKey:FeatureID" json:"tasks,omitempty"`
}

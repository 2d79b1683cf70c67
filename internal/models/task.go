package models

import "time"

// Task carries a five-step discretized progress value (0, 20, 40, 60, 80,
// 100) rather than a continuum.
type Task struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	FeatureID uint64    `gorm:"not null;index" json:"feature_id"`
	Progress  int       `gorm:"not null;default:0" json:"progress"`
	Order     int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Feature Feature `gorm:"foreignKey:FeatureID" json:"feature,omitempty"`
}

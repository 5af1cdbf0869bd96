package models

import (
	"time"

	"gorm.io/gorm"
)

// Location type values
const (
	LocationTypeDorm     = "dorm"
	LocationTypeBuilding = "building"
	LocationTypeFacility = "facility"
)

// Location represents a campus building entry used by the client's building picker
type Location struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Type      string         `gorm:"not null;default:'dorm'" json:"type"` // dorm, building, or facility
	Address   string         `json:"address,omitempty"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Location model
func (Location) TableName() string {
	return "locations"
}

// ValidLocationType reports whether t is a known location type
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeDorm, LocationTypeBuilding, LocationTypeFacility:
		return true
	}
	return false
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ticket status values
const (
	StatusNew        = "NEW"
	StatusInReview   = "IN_REVIEW"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
)

// Classification category values
const (
	CategoryPlumbing   = "Plumbing"
	CategoryElectrical = "Electrical"
	CategoryHVAC       = "HVAC"
	CategoryPest       = "Pest"
	CategoryFurniture  = "Furniture"
	CategorySafety     = "Safety"
	CategoryOther      = "Other"
)

// Classification severity values
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// StatusEntry is a single record in a ticket's status timeline
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Ticket represents a maintenance issue report
type Ticket struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	ReporterName string `json:"reporter_name,omitempty"`

	// Location details
	Building      string `gorm:"not null;index" json:"building"`
	Room          string `gorm:"not null" json:"room"`
	LocationNotes string `json:"location_notes,omitempty"`

	// Images
	ImageURLs      datatypes.JSONSlice[string] `json:"image_urls"`
	AfterImageURLs datatypes.JSONSlice[string] `json:"after_image_urls"`

	// User-provided info
	UserNote string `gorm:"type:text" json:"user_note,omitempty"`

	// AI-generated classification
	Category              string                      `gorm:"not null;default:'Other';index" json:"category"`
	Severity              string                      `gorm:"not null;default:'Low'" json:"severity"`
	AISummary             string                      `json:"ai_summary,omitempty"`
	FacilitiesDescription string                      `gorm:"type:text" json:"facilities_description,omitempty"`
	FollowUpQuestions     datatypes.JSONSlice[string] `json:"follow_up_questions"`
	SafetyNotes           datatypes.JSONSlice[string] `json:"safety_notes"`

	// Status tracking
	Status        string                           `gorm:"not null;default:'NEW';index" json:"status"`
	StatusHistory datatypes.JSONSlice[StatusEntry] `json:"status_history"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// BeforeCreate assigns a UUID id when one was not provided
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// AppendStatus records a transition in the timeline and keeps the
// top-level status in sync with the newest history entry.
func (t *Ticket) AppendStatus(status, note string) {
	t.Status = status
	t.StatusHistory = append(t.StatusHistory, StatusEntry{
		Status:    status,
		Timestamp: time.Now(),
		Note:      note,
	})
}

// CurrentStatus returns the status of the most recent history entry,
// or the stored status when the history is empty.
func (t *Ticket) CurrentStatus() string {
	if n := len(t.StatusHistory); n > 0 {
		return t.StatusHistory[n-1].Status
	}
	return t.Status
}

// ValidStatus reports whether s is one of the four known ticket states
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInReview, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known classification category
func ValidCategory(c string) bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryPest,
		CategoryFurniture, CategorySafety, CategoryOther:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a known classification severity
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

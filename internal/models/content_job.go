package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentJob status constants. Only pending is set here; the image
// orchestrator owns every later transition.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobTypeAutopilotPost marks jobs created by the autopilot
const JobTypeAutopilotPost = "autopilot_post"

// JobBrief is the creative input handed to the generation services
type JobBrief struct {
	Concept string `json:"concept"`
	Style   string `json:"style"`
	Tone    string `json:"tone"`
}

// JobProgress counts prompt completions
type JobProgress struct {
	Total     int `gorm:"not null;default:0"`
	Completed int `gorm:"not null;default:0"`
	Failed    int `gorm:"not null;default:0"`
}

// ContentJob is a generation request handed to the image orchestrator
type ContentJob struct {
	gorm.Model
	JobID    string                       `gorm:"uniqueIndex;not null"`
	UserID   string                       `gorm:"not null;index"`
	Type     string                       `gorm:"not null"`
	Status   string                       `gorm:"not null;default:'pending';index"`
	Brief    datatypes.JSONType[JobBrief] `gorm:"column:brief"`
	Prompts  datatypes.JSONSlice[string]  `gorm:"column:prompts"`
	Progress JobProgress                  `gorm:"embedded;embeddedPrefix:progress_"`
}

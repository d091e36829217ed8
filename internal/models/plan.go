package models

import (
	"time"

	"gorm.io/gorm"
)

// GenerationRun records one execution of the generation pipeline for a
// campaign, including the quality report computed over its plan.
type GenerationRun struct {
	ID              string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID      string         `gorm:"not null;index;type:uuid" json:"campaign_id"`
	Status          string         `gorm:"size:50;default:'running'" json:"status"`
	TotalSlots      int            `json:"total_slots"`
	CompletedSlots  int            `json:"completed_slots"`
	FailedSlots     int            `json:"failed_slots"`
	QualityScore    int            `json:"quality_score"`
	PublishReady    bool           `json:"publish_ready"`
	CriticalIssues  StringArray    `gorm:"type:text[]" json:"critical_issues"`
	Recommendations StringArray    `gorm:"type:text[]" json:"recommendations"`
	Error           string         `gorm:"type:text" json:"error"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"-"`
}

// PlanItem is one scheduled content placement together with its description
// and, once dispatched, its generation output.
type PlanItem struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RunID       string `gorm:"not null;index;type:uuid" json:"run_id"`
	CampaignID  string `gorm:"not null;index;type:uuid" json:"campaign_id"`
	SlotID      string `gorm:"uniqueIndex;not null;size:36" json:"slot_id"`
	SlotIndex   int    `gorm:"not null" json:"slot_index"`
	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`
	Platform    string `gorm:"size:50;not null" json:"platform"`
	ContentType string `gorm:"size:50;not null" json:"content_type"`

	Description string      `gorm:"type:text" json:"description"`
	ResourceIDs StringArray `gorm:"type:text[]" json:"resource_ids"`
	TemplateID  string      `gorm:"size:36" json:"template_id"`
	Warnings    StringArray `gorm:"type:text[]" json:"warnings"`

	Status        string      `gorm:"size:50;default:'pending';index" json:"status"`
	Error         string      `gorm:"type:text" json:"error"`
	GeneratedText string      `gorm:"type:text" json:"generated_text"`
	ImageURL      string      `gorm:"size:1024" json:"image_url"`
	ImageURLs     StringArray `gorm:"type:text[]" json:"image_urls"`
	Agent         string      `gorm:"size:50" json:"agent"`
	ProcessingMS  int64       `json:"processing_ms"`
	GeneratedAt   *time.Time  `json:"generated_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Run GenerationRun `gorm:"foreignKey:RunID" json:"-"`
}

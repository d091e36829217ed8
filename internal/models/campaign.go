package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign generation lifecycle states.
const (
	CampaignStatusDraft              = "draft"
	CampaignStatusQueued             = "queued"
	CampaignStatusGenerating         = "generating"
	CampaignStatusCompleted          = "completed"
	CampaignStatusPartiallyCompleted = "partially_completed"
	CampaignStatusFailed             = "failed"
)

type Campaign struct {
	ID                 string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WorkspaceID        string         `gorm:"index;type:uuid" json:"workspace_id"`
	Name               string         `gorm:"not null;size:255" json:"name"`
	Objective          string         `gorm:"type:text" json:"objective"`
	Brief              string         `gorm:"type:text" json:"brief"`
	StartDate          time.Time      `gorm:"not null" json:"start_date"`
	EndDate            time.Time      `gorm:"not null" json:"end_date"`
	PlatformWeights    FloatMap       `gorm:"type:jsonb" json:"platform_weights"`
	PublicationsPerDay int            `gorm:"default:1" json:"publications_per_day"`
	ResourceIDs        StringArray    `gorm:"type:text[]" json:"resource_ids"`
	TemplateIDs        StringArray    `gorm:"type:text[]" json:"template_ids"`
	Restrictions       StringArray    `gorm:"type:text[]" json:"restrictions"`
	BusinessObjectives StringArray    `gorm:"type:text[]" json:"business_objectives"`
	BrandVoice         string         `gorm:"type:text" json:"brand_voice"`
	BrandValues        StringArray    `gorm:"type:text[]" json:"brand_values"`
	Status             string         `gorm:"size:50;default:'draft';index" json:"status"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

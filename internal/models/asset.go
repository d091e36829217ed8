package models

import (
	"time"

	"gorm.io/gorm"
)

// Resource is a media asset owned by a workspace. The analysis columns cache
// the semantic analysis produced on first use; empty AnalyzedAt means the
// resource has never been analyzed.
type Resource struct {
	ID                 string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WorkspaceID        string         `gorm:"index;type:uuid" json:"workspace_id"`
	Name               string         `gorm:"size:255" json:"name"`
	MediaType          string         `gorm:"size:50" json:"media_type"`
	URL                string         `gorm:"size:1024" json:"url"`
	VisualDescription  string         `gorm:"type:text" json:"visual_description"`
	SuggestedUses      StringArray    `gorm:"type:text[]" json:"suggested_uses"`
	Mood               string         `gorm:"size:100" json:"mood"`
	BrandCompatibility string         `gorm:"size:20" json:"brand_compatibility"`
	AnalyzedAt         *time.Time     `json:"analyzed_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Template is a visual layout a content item can be rendered into.
type Template struct {
	ID              string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WorkspaceID     string         `gorm:"index;type:uuid" json:"workspace_id"`
	Name            string         `gorm:"size:255" json:"name"`
	URL             string         `gorm:"size:1024" json:"url"`
	LayoutStrengths StringArray    `gorm:"type:text[]" json:"layout_strengths"`
	TextCapacity    int            `gorm:"default:0" json:"text_capacity"`
	NetworkAptitude StringArray    `gorm:"type:text[]" json:"network_aptitude"`
	AnalyzedAt      *time.Time     `json:"analyzed_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

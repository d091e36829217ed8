package engine

import (
	"time"
)

// ContentType determines which generation agent handles a slot and which
// media the slot requires.
type ContentType string

const (
	ContentTypeText         ContentType = "text"
	ContentTypeTextImage    ContentType = "text_image"
	ContentTypeTextTemplate ContentType = "text_template"
	ContentTypeCarousel     ContentType = "carousel"
)

// NeedsResources reports whether slots of this type must carry media.
func (t ContentType) NeedsResources() bool {
	return t == ContentTypeTextImage || t == ContentTypeCarousel
}

// NeedsTemplate reports whether slots of this type must carry a template.
func (t ContentType) NeedsTemplate() bool {
	return t == ContentTypeTextTemplate || t == ContentTypeCarousel
}

// MinResources is the smallest resource count that satisfies the type.
func (t ContentType) MinResources() int {
	if t.NeedsResources() {
		return 1
	}
	return 0
}

// MaxResources is the largest resource count assigned to the type.
func (t ContentType) MaxResources() int {
	switch t {
	case ContentTypeCarousel:
		return 3
	case ContentTypeTextImage:
		return 1
	default:
		return 0
	}
}

// CampaignConfig is the high-level configuration a campaign run starts from.
type CampaignConfig struct {
	CampaignID         string
	Objective          string
	Brief              string
	StartDate          time.Time
	EndDate            time.Time
	PlatformWeights    map[string]float64
	PublicationsPerDay int
	ResourceIDs        []string
	TemplateIDs        []string
	Restrictions       []string
	BusinessObjectives []string
}

// Branding is the owning workspace's voice context, passed through to every
// generation call.
type Branding struct {
	Voice  string
	Values []string
}

// ContentSlot is one scheduled placement. Immutable once the plan is
// finalized; single-item regeneration replaces its description and result but
// never the slot itself.
type ContentSlot struct {
	ID          string
	Index       int
	ScheduledAt time.Time
	Platform    string
	ContentType ContentType
}

// DescriptionStatus is the lifecycle state of a ContentDescription.
type DescriptionStatus string

const (
	DescriptionPending      DescriptionStatus = "pending"
	DescriptionApproved     DescriptionStatus = "approved"
	DescriptionRegenerating DescriptionStatus = "regenerating"
	DescriptionGenerated    DescriptionStatus = "generated"
)

// ContentDescription is the creative idea for one slot, plus the media and
// template assigned to it.
type ContentDescription struct {
	SlotID      string
	Text        string
	ResourceIDs []string
	TemplateID  string
	Status      DescriptionStatus
	Warnings    []string
}

// GenerationResult is the dispatched output for one slot. A new result
// supersedes any previous one for the same slot.
type GenerationResult struct {
	SlotID         string
	Text           string
	ImageURL       string
	ImageURLs      []string
	Agent          string
	ProcessingTime time.Duration
	ResourcesUsed  []string
	GeneratedAt    time.Time
}

// SlotError identifies a slot whose dispatch failed, with a human-readable
// message. Timeout failures are flagged so callers can log them distinctly.
type SlotError struct {
	SlotID  string
	Message string
	Timeout bool
}

// PlanState is the overall outcome of a run.
type PlanState string

const (
	PlanStateDraft              PlanState = "draft"
	PlanStateCompleted          PlanState = "completed"
	PlanStatePartiallyCompleted PlanState = "partially_completed"
	PlanStateCancelled          PlanState = "cancelled"
)

// Plan is the full set of slots, descriptions and results for one campaign
// run.
type Plan struct {
	CampaignID   string
	Slots        []ContentSlot
	Descriptions map[string]*ContentDescription
	Results      map[string]*GenerationResult
	Report       *QualityReport
	State        PlanState
	FailedSlots  []SlotError
	CreatedAt    time.Time
}

// Clone returns a deep copy of the plan. Regeneration mutates a plan's
// descriptions and results in place, so any plan handed across a goroutine
// boundary must be a copy that shares nothing mutable with the original.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}

	out := &Plan{
		CampaignID:   p.CampaignID,
		Slots:        append([]ContentSlot(nil), p.Slots...),
		Descriptions: make(map[string]*ContentDescription, len(p.Descriptions)),
		Results:      make(map[string]*GenerationResult, len(p.Results)),
		State:        p.State,
		FailedSlots:  append([]SlotError(nil), p.FailedSlots...),
		CreatedAt:    p.CreatedAt,
	}

	for id, desc := range p.Descriptions {
		d := *desc
		d.ResourceIDs = append([]string(nil), desc.ResourceIDs...)
		d.Warnings = append([]string(nil), desc.Warnings...)
		out.Descriptions[id] = &d
	}
	for id, res := range p.Results {
		r := *res
		r.ImageURLs = append([]string(nil), res.ImageURLs...)
		r.ResourcesUsed = append([]string(nil), res.ResourcesUsed...)
		out.Results[id] = &r
	}
	if p.Report != nil {
		rep := *p.Report
		rep.Checks = append([]CheckResult(nil), p.Report.Checks...)
		rep.CriticalIssues = append([]string(nil), p.Report.CriticalIssues...)
		rep.Recommendations = append([]string(nil), p.Report.Recommendations...)
		out.Report = &rep
	}
	return out
}

// Slot returns the slot with the given id, or nil.
func (p *Plan) Slot(id string) *ContentSlot {
	for i := range p.Slots {
		if p.Slots[i].ID == id {
			return &p.Slots[i]
		}
	}
	return nil
}

// CompletedCount is the number of slots with a generation result.
func (p *Plan) CompletedCount() int {
	return len(p.Results)
}

// ResourceMetadata is what the engine reads about an external media resource:
// identity, media type and the cached semantic analysis, when present.
type ResourceMetadata struct {
	ID        string
	MediaType string
	URL       string
	Analysis  *ResourceAnalysis
}

type ResourceAnalysis struct {
	VisualDescription  string
	SuggestedUses      []string
	Mood               string
	BrandCompatibility string // "high", "medium" or "low"
}

// TemplateMetadata is what the engine reads about an external template.
type TemplateMetadata struct {
	ID       string
	URL      string
	Analysis *TemplateAnalysis
}

type TemplateAnalysis struct {
	LayoutStrengths []string
	TextCapacity    int
	NetworkAptitude []string
}

// SupportsPlatform reports whether the template is apt for the platform.
// Templates without analysis, or without declared aptitudes, are treated as
// unrestricted.
func (t *TemplateMetadata) SupportsPlatform(platform string) bool {
	if t == nil || t.Analysis == nil || len(t.Analysis.NetworkAptitude) == 0 {
		return true
	}
	for _, p := range t.Analysis.NetworkAptitude {
		if p == platform {
			return true
		}
	}
	return false
}

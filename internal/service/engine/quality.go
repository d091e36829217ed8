package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/pkg/util"
)

// Quality check names, in evaluation order. The first three are blocking;
// the last two are advisory.
const (
	CheckTemplateConsistency  = "template_consistency"
	CheckResourceAvailability = "resource_availability"
	CheckRestrictions         = "restrictions_compliance"
	CheckLegibility           = "legibility"
	CheckBrandAlignment       = "brand_alignment"
)

// CheckResult is the outcome of one quality check.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// QualityReport is the quality gate's assessment of a plan. It is derived
// data, recomputed on every regeneration. The gate never deletes or fixes plan
// content; its only write is advancing pending descriptions to approved when
// the plan is publish-ready.
type QualityReport struct {
	Checks          []CheckResult
	OverallScore    int
	CriticalIssues  []string
	Recommendations []string
	PublishReady    bool
	GeneratedAt     time.Time
}

// Validator runs the five-check quality gate over a plan's descriptions.
type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate scores the plan. Failing blocking checks append to
// CriticalIssues; failing advisory checks append to Recommendations. The
// overall score is the share of passing checks, all weighted equally.
func (v *Validator) Validate(
	plan *Plan,
	cfg *CampaignConfig,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
) *QualityReport {
	report := &QualityReport{GeneratedAt: time.Now()}

	blocking := []CheckResult{
		v.checkTemplateConsistency(plan, templates),
		v.checkResourceAvailability(plan),
		v.checkRestrictions(plan, cfg),
	}
	advisory := []CheckResult{
		v.checkLegibility(plan, templates),
		v.checkBrandAlignment(plan, resources),
	}

	passed := 0
	for _, check := range blocking {
		report.Checks = append(report.Checks, check)
		if check.Passed {
			passed++
		} else {
			report.CriticalIssues = append(report.CriticalIssues, check.Detail)
		}
	}
	for _, check := range advisory {
		report.Checks = append(report.Checks, check)
		if check.Passed {
			passed++
		} else {
			report.Recommendations = append(report.Recommendations, check.Detail)
		}
	}

	report.OverallScore = passed * 100 / len(report.Checks)
	report.PublishReady = len(report.CriticalIssues) == 0

	// The gate owns the pending -> approved transition. Descriptions that
	// already advanced past pending keep their status.
	if report.PublishReady {
		for _, desc := range plan.Descriptions {
			if desc.Status == DescriptionPending {
				desc.Status = DescriptionApproved
			}
		}
	}

	v.logger.Info("quality gate evaluated",
		zap.String("campaign_id", plan.CampaignID),
		zap.Int("score", report.OverallScore),
		zap.Int("critical_issues", len(report.CriticalIssues)),
		zap.Int("recommendations", len(report.Recommendations)))

	return report
}

// Every slot requiring a template must have exactly one assigned, and the
// template must support the slot's platform.
func (v *Validator) checkTemplateConsistency(plan *Plan, templates map[string]TemplateMetadata) CheckResult {
	for _, slot := range plan.Slots {
		if !slot.ContentType.NeedsTemplate() {
			continue
		}
		desc := plan.Descriptions[slot.ID]
		if desc == nil || desc.TemplateID == "" {
			return CheckResult{
				Name:   CheckTemplateConsistency,
				Detail: fmt.Sprintf("slot %s requires a template but has none assigned", slot.ID),
			}
		}
		tpl, ok := templates[desc.TemplateID]
		if !ok {
			return CheckResult{
				Name:   CheckTemplateConsistency,
				Detail: fmt.Sprintf("slot %s references unknown template %s", slot.ID, desc.TemplateID),
			}
		}
		if !tpl.SupportsPlatform(slot.Platform) {
			return CheckResult{
				Name:   CheckTemplateConsistency,
				Detail: fmt.Sprintf("template %s does not support platform %s (slot %s)", desc.TemplateID, slot.Platform, slot.ID),
			}
		}
	}
	return CheckResult{Name: CheckTemplateConsistency, Passed: true}
}

// Every slot requiring resources must have at least the minimum count.
func (v *Validator) checkResourceAvailability(plan *Plan) CheckResult {
	for _, slot := range plan.Slots {
		min := slot.ContentType.MinResources()
		if min == 0 {
			continue
		}
		desc := plan.Descriptions[slot.ID]
		assigned := 0
		if desc != nil {
			assigned = len(desc.ResourceIDs)
		}
		if assigned < min {
			return CheckResult{
				Name:   CheckResourceAvailability,
				Detail: fmt.Sprintf("slot %s requires %d resource(s) but has %d assigned", slot.ID, min, assigned),
			}
		}
	}
	return CheckResult{Name: CheckResourceAvailability, Passed: true}
}

// No description text may contain a hard restriction. Keyword containment
// only; semantic checking is out of scope for this gate.
func (v *Validator) checkRestrictions(plan *Plan, cfg *CampaignConfig) CheckResult {
	for _, desc := range plan.Descriptions {
		for _, restriction := range cfg.Restrictions {
			if util.ContainsKeyword(desc.Text, restriction) {
				return CheckResult{
					Name:   CheckRestrictions,
					Detail: fmt.Sprintf("slot %s violates restriction %q", desc.SlotID, util.Truncate(restriction, 60)),
				}
			}
		}
	}
	return CheckResult{Name: CheckRestrictions, Passed: true}
}

// Description text should fit within the assigned template's text capacity.
func (v *Validator) checkLegibility(plan *Plan, templates map[string]TemplateMetadata) CheckResult {
	for _, desc := range plan.Descriptions {
		if desc.TemplateID == "" {
			continue
		}
		tpl, ok := templates[desc.TemplateID]
		if !ok || tpl.Analysis == nil || tpl.Analysis.TextCapacity <= 0 {
			continue
		}
		if util.EstimateRenderedLength(desc.Text) > tpl.Analysis.TextCapacity {
			return CheckResult{
				Name:   CheckLegibility,
				Detail: fmt.Sprintf("slot %s text likely exceeds template %s capacity of %d characters", desc.SlotID, desc.TemplateID, tpl.Analysis.TextCapacity),
			}
		}
	}
	return CheckResult{Name: CheckLegibility, Passed: true}
}

// Resources with low cached brand compatibility should not be used.
func (v *Validator) checkBrandAlignment(plan *Plan, resources map[string]ResourceMetadata) CheckResult {
	for _, desc := range plan.Descriptions {
		for _, id := range desc.ResourceIDs {
			res, ok := resources[id]
			if !ok || res.Analysis == nil {
				continue
			}
			if res.Analysis.BrandCompatibility == "low" {
				return CheckResult{
					Name:   CheckBrandAlignment,
					Detail: fmt.Sprintf("slot %s uses resource %s with low brand compatibility", desc.SlotID, id),
				}
			}
		}
	}
	return CheckResult{Name: CheckBrandAlignment, Passed: true}
}

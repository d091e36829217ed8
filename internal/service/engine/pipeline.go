package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/service/progress"
)

// contentTypeRotation decides the content type of each slot: the j-th slot
// within a platform's block takes the j mod 4 entry. Keeps every agent
// exercised while staying deterministic.
var contentTypeRotation = []ContentType{
	ContentTypeTextImage,
	ContentTypeText,
	ContentTypeCarousel,
	ContentTypeTextTemplate,
}

// PipelineInput is everything one campaign run needs: the configuration plus
// the externally-loaded workspace context.
type PipelineInput struct {
	Config    *CampaignConfig
	Branding  Branding
	Resources []ResourceMetadata
	Templates []TemplateMetadata
}

// Pipeline wires the generation stages end to end:
// planner -> allocator -> assignment -> describer -> quality gate ->
// dispatcher. It also implements regeneration, both full-plan and
// single-item.
type Pipeline struct {
	planner    *Planner
	assigner   *Assigner
	describer  *Describer
	validator  *Validator
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewPipeline(
	planner *Planner,
	assigner *Assigner,
	describer *Describer,
	validator *Validator,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		planner:    planner,
		assigner:   assigner,
		describer:  describer,
		validator:  validator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run executes the full pipeline for one campaign. Validation and description
// failures abort the run with no plan; dispatch failures do not: they leave
// a valid, partially-completed plan with explicit failed slots.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput, tracker *progress.Tracker) (*Plan, error) {
	cfg := in.Config

	schedule, err := p.planner.Schedule(cfg)
	if err != nil {
		return nil, err
	}

	platforms, err := AllocatePlatforms(len(schedule), cfg.PlatformWeights)
	if err != nil {
		return nil, err
	}

	slots := buildSlots(schedule, platforms)
	resourceMap := indexResources(in.Resources)
	templateMap := indexTemplates(in.Templates)

	assignments := p.assigner.AssignSlots(slots, in.Resources, in.Templates)

	descriptions, err := p.describer.Generate(ctx, cfg, in.Branding, slots, assignments, resourceMap, templateMap)
	if err != nil {
		// Whole-or-nothing: without descriptions there is nothing to
		// schedule, so no partial plan is committed.
		return nil, err
	}

	plan := &Plan{
		CampaignID:   cfg.CampaignID,
		Slots:        slots,
		Descriptions: descriptions,
		Results:      make(map[string]*GenerationResult),
		State:        PlanStateDraft,
		CreatedAt:    time.Now(),
	}

	plan.Report = p.validator.Validate(plan, cfg, resourceMap, templateMap)

	results := p.dispatcher.Dispatch(ctx, plan, cfg, in.Branding, resourceMap, templateMap, tracker)
	p.applyResults(plan, results)
	p.finalizeState(ctx, plan)

	tracker.Complete(fmt.Sprintf("plan %s: %d/%d slots generated",
		plan.State, plan.CompletedCount(), len(plan.Slots)))

	p.logger.Info("pipeline run finished",
		zap.String("campaign_id", cfg.CampaignID),
		zap.String("state", string(plan.State)),
		zap.Int("slots", len(plan.Slots)),
		zap.Int("completed", plan.CompletedCount()),
		zap.Int("failed", len(plan.FailedSlots)))

	return plan, nil
}

// RegeneratePlan discards everything and re-runs the pipeline with the same
// configuration. Stages before the backends are deterministic for identical
// input.
func (p *Pipeline) RegeneratePlan(ctx context.Context, in PipelineInput, tracker *progress.Tracker) (*Plan, error) {
	p.logger.Info("regenerating full plan", zap.String("campaign_id", in.Config.CampaignID))
	return p.Run(ctx, in, tracker)
}

// RegenerateSlot re-runs description generation and dispatch for exactly one
// slot. Every other slot's records are untouched; the slot itself keeps its
// id, date, platform and content type. The quality gate is re-run over the
// whole plan so the report never carries stale findings.
func (p *Pipeline) RegenerateSlot(ctx context.Context, in PipelineInput, plan *Plan, slotID string, tracker *progress.Tracker) error {
	slot := plan.Slot(slotID)
	if slot == nil {
		return fmt.Errorf("slot %s not found in plan", slotID)
	}

	prev := plan.Descriptions[slotID]
	if prev != nil {
		prev.Status = DescriptionRegenerating
	}

	resourceMap := indexResources(in.Resources)
	templateMap := indexTemplates(in.Templates)

	assignment := p.assigner.AssignOne(*slot, in.Resources, in.Templates)

	desc, err := p.describer.GenerateOne(ctx, in.Config, in.Branding, *slot, assignment, resourceMap, templateMap)
	if err != nil {
		if prev != nil {
			prev.Status = DescriptionPending
		}
		return err
	}

	plan.Descriptions[slotID] = desc
	delete(plan.Results, slotID)

	result, err := p.dispatcher.DispatchOne(ctx, plan, slotID, in.Config, in.Branding, resourceMap, templateMap, tracker)
	if err != nil {
		return err
	}

	p.applyResults(plan, []SlotResult{result})
	plan.Report = p.validator.Validate(plan, in.Config, resourceMap, templateMap)
	p.finalizeState(ctx, plan)

	return nil
}

// applyResults folds dispatch outcomes into the plan. A new result for a slot
// supersedes any earlier one; a failure clears the slot's stale failure entry
// before recording the new one.
func (p *Pipeline) applyResults(plan *Plan, results []SlotResult) {
	for _, res := range results {
		plan.FailedSlots = removeSlotError(plan.FailedSlots, res.SlotID)

		switch res.Status {
		case DispatchSucceeded:
			plan.Results[res.SlotID] = res.Result
			if desc := plan.Descriptions[res.SlotID]; desc != nil {
				desc.Status = DescriptionGenerated
			}
		case DispatchFailed:
			plan.FailedSlots = append(plan.FailedSlots, SlotError{
				SlotID:  res.SlotID,
				Message: res.Err.Error(),
				Timeout: IsTimeout(res.Err),
			})
		}
	}
}

func (p *Pipeline) finalizeState(ctx context.Context, plan *Plan) {
	switch {
	case ctx.Err() != nil:
		// A cancelled run is a valid, partially-completed plan.
		plan.State = PlanStateCancelled
	case len(plan.FailedSlots) > 0 || plan.CompletedCount() < len(plan.Slots):
		plan.State = PlanStatePartiallyCompleted
	default:
		plan.State = PlanStateCompleted
	}
}

// buildSlots merges the temporal schedule with the platform allocation and
// tags each slot with its content type.
func buildSlots(schedule []ScheduledSlot, platforms []string) []ContentSlot {
	slots := make([]ContentSlot, len(schedule))
	perPlatform := make(map[string]int, 8)

	for i, sched := range schedule {
		platform := platforms[i]
		j := perPlatform[platform]
		perPlatform[platform]++

		slots[i] = ContentSlot{
			ID:          uuid.NewString(),
			Index:       sched.Index,
			ScheduledAt: sched.At,
			Platform:    platform,
			ContentType: contentTypeRotation[j%len(contentTypeRotation)],
		}
	}
	return slots
}

func indexResources(resources []ResourceMetadata) map[string]ResourceMetadata {
	out := make(map[string]ResourceMetadata, len(resources))
	for _, r := range resources {
		out[r.ID] = r
	}
	return out
}

func indexTemplates(templates []TemplateMetadata) map[string]TemplateMetadata {
	out := make(map[string]TemplateMetadata, len(templates))
	for _, t := range templates {
		out[t.ID] = t
	}
	return out
}

func removeSlotError(errs []SlotError, slotID string) []SlotError {
	out := errs[:0]
	for _, e := range errs {
		if e.SlotID != slotID {
			out = append(out, e)
		}
	}
	return out
}

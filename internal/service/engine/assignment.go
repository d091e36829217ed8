package engine

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
)

// Assignment is the media selection for one slot, made before any creative
// text exists.
type Assignment struct {
	SlotID      string
	ResourceIDs []string
	TemplateID  string
	Warnings    []string
}

// Assigner picks resources and templates for slots that need them. Selection
// is pseudo-random from the eligible pool; the random source is injected so
// callers can seed it for reproducible runs.
type Assigner struct {
	rng    *rand.Rand
	logger *zap.Logger
}

func NewAssigner(rng *rand.Rand, logger *zap.Logger) *Assigner {
	return &Assigner{rng: rng, logger: logger}
}

// AssignSlots produces one Assignment per slot. An empty eligible pool for a
// slot that requires media is a warning on that slot, not a failure; the
// quality gate reports it later.
func (a *Assigner) AssignSlots(slots []ContentSlot, resources []ResourceMetadata, templates []TemplateMetadata) map[string]*Assignment {
	assignments := make(map[string]*Assignment, len(slots))

	for _, slot := range slots {
		assignment := &Assignment{SlotID: slot.ID}

		if slot.ContentType.NeedsResources() {
			assignment.ResourceIDs = a.pickResources(slot, resources)
			if len(assignment.ResourceIDs) == 0 {
				warning := fmt.Sprintf("no eligible resource for %s slot", slot.ContentType)
				assignment.Warnings = append(assignment.Warnings, warning)
				a.logger.Warn("resource assignment skipped",
					zap.String("slot_id", slot.ID),
					zap.String("content_type", string(slot.ContentType)))
			}
		}

		if slot.ContentType.NeedsTemplate() {
			assignment.TemplateID = a.pickTemplate(templates)
			if assignment.TemplateID == "" {
				warning := fmt.Sprintf("no eligible template for %s slot", slot.ContentType)
				assignment.Warnings = append(assignment.Warnings, warning)
				a.logger.Warn("template assignment skipped",
					zap.String("slot_id", slot.ID),
					zap.String("content_type", string(slot.ContentType)))
			}
		}

		assignments[slot.ID] = assignment
	}

	return assignments
}

// AssignOne re-runs assignment for a single slot, used by single-item
// regeneration.
func (a *Assigner) AssignOne(slot ContentSlot, resources []ResourceMetadata, templates []TemplateMetadata) *Assignment {
	assignments := a.AssignSlots([]ContentSlot{slot}, resources, templates)
	return assignments[slot.ID]
}

func (a *Assigner) pickResources(slot ContentSlot, resources []ResourceMetadata) []string {
	if len(resources) == 0 {
		return nil
	}

	want := slot.ContentType.MaxResources()
	if want > len(resources) {
		want = len(resources)
	}

	perm := a.rng.Perm(len(resources))
	picked := make([]string, 0, want)
	for _, idx := range perm[:want] {
		picked = append(picked, resources[idx].ID)
	}
	return picked
}

func (a *Assigner) pickTemplate(templates []TemplateMetadata) string {
	if len(templates) == 0 {
		return ""
	}
	return templates[a.rng.Intn(len(templates))].ID
}

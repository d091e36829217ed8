package service

import (
	"github.com/cadencehq/cadence/internal/models"
	"github.com/cadencehq/cadence/internal/service/engine"
)

// Persisted dispatch states for plan items.
const (
	itemStatusPending   = "pending"
	itemStatusSucceeded = "succeeded"
	itemStatusFailed    = "failed"
)

// planToItems flattens an engine plan into persistable rows.
func planToItems(runID, campaignID string, plan *engine.Plan) []models.PlanItem {
	items := make([]models.PlanItem, 0, len(plan.Slots))

	failed := make(map[string]engine.SlotError, len(plan.FailedSlots))
	for _, se := range plan.FailedSlots {
		failed[se.SlotID] = se
	}

	for _, slot := range plan.Slots {
		item := models.PlanItem{
			RunID:       runID,
			CampaignID:  campaignID,
			SlotID:      slot.ID,
			SlotIndex:   slot.Index,
			ScheduledAt: slot.ScheduledAt,
			Platform:    slot.Platform,
			ContentType: string(slot.ContentType),
			Status:      itemStatusPending,
		}

		if desc := plan.Descriptions[slot.ID]; desc != nil {
			item.Description = desc.Text
			item.ResourceIDs = desc.ResourceIDs
			item.TemplateID = desc.TemplateID
			item.Warnings = desc.Warnings
		}

		if result := plan.Results[slot.ID]; result != nil {
			item.Status = itemStatusSucceeded
			item.GeneratedText = result.Text
			item.ImageURL = result.ImageURL
			item.ImageURLs = result.ImageURLs
			item.Agent = result.Agent
			item.ProcessingMS = result.ProcessingTime.Milliseconds()
			generatedAt := result.GeneratedAt
			item.GeneratedAt = &generatedAt
		} else if se, ok := failed[slot.ID]; ok {
			item.Status = itemStatusFailed
			item.Error = se.Message
		}

		items = append(items, item)
	}

	return items
}

// planFromItems rebuilds an engine plan from persisted rows, e.g. after a
// service restart. The quality report is not persisted; regeneration
// recomputes it.
func planFromItems(campaignID string, items []models.PlanItem) *engine.Plan {
	plan := &engine.Plan{
		CampaignID:   campaignID,
		Descriptions: make(map[string]*engine.ContentDescription, len(items)),
		Results:      make(map[string]*engine.GenerationResult, len(items)),
	}

	for _, item := range items {
		plan.Slots = append(plan.Slots, engine.ContentSlot{
			ID:          item.SlotID,
			Index:       item.SlotIndex,
			ScheduledAt: item.ScheduledAt,
			Platform:    item.Platform,
			ContentType: engine.ContentType(item.ContentType),
		})

		desc := &engine.ContentDescription{
			SlotID:      item.SlotID,
			Text:        item.Description,
			ResourceIDs: item.ResourceIDs,
			TemplateID:  item.TemplateID,
			Status:      engine.DescriptionPending,
			Warnings:    item.Warnings,
		}

		switch item.Status {
		case itemStatusSucceeded:
			desc.Status = engine.DescriptionGenerated
			result := &engine.GenerationResult{
				SlotID:    item.SlotID,
				Text:      item.GeneratedText,
				ImageURL:  item.ImageURL,
				ImageURLs: item.ImageURLs,
				Agent:     item.Agent,
			}
			if item.GeneratedAt != nil {
				result.GeneratedAt = *item.GeneratedAt
			}
			plan.Results[item.SlotID] = result
		case itemStatusFailed:
			plan.FailedSlots = append(plan.FailedSlots, engine.SlotError{
				SlotID:  item.SlotID,
				Message: item.Error,
			})
		}

		plan.Descriptions[item.SlotID] = desc
	}

	if len(plan.FailedSlots) > 0 || len(plan.Results) < len(plan.Slots) {
		plan.State = engine.PlanStatePartiallyCompleted
	} else {
		plan.State = engine.PlanStateCompleted
	}

	return plan
}

// applySlotToItem copies one slot's current description and result onto its
// persisted row after single-item regeneration.
func applySlotToItem(item *models.PlanItem, plan *engine.Plan, slotID string) {
	if desc := plan.Descriptions[slotID]; desc != nil {
		item.Description = desc.Text
		item.ResourceIDs = desc.ResourceIDs
		item.TemplateID = desc.TemplateID
		item.Warnings = desc.Warnings
	}

	if result := plan.Results[slotID]; result != nil {
		item.Status = itemStatusSucceeded
		item.Error = ""
		item.GeneratedText = result.Text
		item.ImageURL = result.ImageURL
		item.ImageURLs = result.ImageURLs
		item.Agent = result.Agent
		item.ProcessingMS = result.ProcessingTime.Milliseconds()
		generatedAt := result.GeneratedAt
		item.GeneratedAt = &generatedAt
		return
	}

	for _, se := range plan.FailedSlots {
		if se.SlotID == slotID {
			item.Status = itemStatusFailed
			item.Error = se.Message
			return
		}
	}
}

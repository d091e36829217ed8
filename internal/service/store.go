package service

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cadencehq/cadence/internal/models"
)

// Store is the repository layer the pipeline reads campaign context from and
// writes plans back to.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetCampaign(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.Where("id = ?", id).First(&campaign).Error; err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}
	return &campaign, nil
}

func (s *Store) UpdateCampaignStatus(id, status string) error {
	return s.db.Model(&models.Campaign{}).Where("id = ?", id).Update("status", status).Error
}

// ListQueuedCampaigns returns campaigns waiting for a generation run.
func (s *Store) ListQueuedCampaigns(limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.db.Where("status = ?", models.CampaignStatusQueued).
		Order("updated_at ASC").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

// ListResources returns the given resources, or every workspace resource when
// no preselection exists.
func (s *Store) ListResources(workspaceID string, ids []string) ([]models.Resource, error) {
	var resources []models.Resource
	q := s.db.Where("workspace_id = ?", workspaceID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&resources).Error
	return resources, err
}

func (s *Store) ListTemplates(workspaceID string, ids []string) ([]models.Template, error) {
	var templates []models.Template
	q := s.db.Where("workspace_id = ?", workspaceID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&templates).Error
	return templates, err
}

// SaveResourceAnalysis persists a freshly computed semantic analysis so later
// runs skip the backend call.
func (s *Store) SaveResourceAnalysis(id string, visual string, uses []string, mood, brand string) error {
	now := time.Now()
	return s.db.Model(&models.Resource{}).Where("id = ?", id).Updates(map[string]any{
		"visual_description":  visual,
		"suggested_uses":      models.StringArray(uses),
		"mood":                mood,
		"brand_compatibility": brand,
		"analyzed_at":         &now,
	}).Error
}

func (s *Store) SaveTemplateAnalysis(id string, strengths []string, capacity int, aptitude []string) error {
	now := time.Now()
	return s.db.Model(&models.Template{}).Where("id = ?", id).Updates(map[string]any{
		"layout_strengths": models.StringArray(strengths),
		"text_capacity":    capacity,
		"network_aptitude": models.StringArray(aptitude),
		"analyzed_at":      &now,
	}).Error
}

func (s *Store) CreateRun(run *models.GenerationRun) error {
	return s.db.Create(run).Error
}

func (s *Store) UpdateRun(run *models.GenerationRun) error {
	return s.db.Save(run).Error
}

// ReplacePlanItems swaps a campaign's plan for the given items in one
// transaction. Used when a full run (or full regeneration) lands.
func (s *Store) ReplacePlanItems(campaignID string, items []models.PlanItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("campaign_id = ?", campaignID).Delete(&models.PlanItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// UpdatePlanItem persists a single regenerated item in place.
func (s *Store) UpdatePlanItem(item *models.PlanItem) error {
	return s.db.Save(item).Error
}

func (s *Store) GetPlanItems(campaignID string) ([]models.PlanItem, error) {
	var items []models.PlanItem
	err := s.db.Where("campaign_id = ?", campaignID).
		Order("slot_index ASC").
		Find(&items).Error
	return items, err
}

func (s *Store) GetPlanItemBySlot(slotID string) (*models.PlanItem, error) {
	var item models.PlanItem
	if err := s.db.Where("slot_id = ?", slotID).First(&item).Error; err != nil {
		return nil, fmt.Errorf("plan item not found: %w", err)
	}
	return &item, nil
}

func (s *Store) GetLatestRun(campaignID string) (*models.GenerationRun, error) {
	var run models.GenerationRun
	if err := s.db.Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		First(&run).Error; err != nil {
		return nil, fmt.Errorf("generation run not found: %w", err)
	}
	return &run, nil
}

// CleanupOldRuns removes finished runs older than the retention window.
func (s *Store) CleanupOldRuns(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.db.Where("finished_at IS NOT NULL AND finished_at < ?", cutoff).
		Delete(&models.GenerationRun{}).Error
}

package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/models"
	"github.com/cadencehq/cadence/internal/service/agent"
	"github.com/cadencehq/cadence/internal/service/analysis"
	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
	"github.com/cadencehq/cadence/internal/service/progress"
)

// runState is the in-memory side of one campaign's current generation run.
type runState struct {
	runID   string
	tracker *progress.Tracker
	plan    *engine.Plan
	input   engine.PipelineInput
	cancel  context.CancelFunc
	running bool
}

// PipelineService runs the generation pipeline for campaigns: it loads the
// campaign context from the store, executes the engine, persists the
// resulting plan and exposes progress and regeneration entry points.
type PipelineService struct {
	cfg    *config.Config
	db     *gorm.DB
	store  *Store
	logger *zap.Logger

	textClient  *backend.TextClient
	imageClient *backend.ImageClient
	cache       *analysis.Cache
	pipeline    *engine.Pipeline

	mu   sync.Mutex
	runs map[string]*runState
}

func NewPipelineService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*PipelineService, error) {
	textClient, err := backend.NewTextClient(cfg.TextBackend, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create text backend client: %w", err)
	}
	imageClient, err := backend.NewImageClient(cfg.ImageBackend, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image backend client: %w", err)
	}

	store := NewStore(db)

	svc := &PipelineService{
		cfg:         cfg,
		db:          db,
		store:       store,
		logger:      logger,
		textClient:  textClient,
		imageClient: imageClient,
		runs:        make(map[string]*runState),
	}

	svc.cache = analysis.NewCache(&backendAnalyzer{client: imageClient, store: store, logger: logger}, logger)

	pipeline, err := svc.buildPipeline()
	if err != nil {
		return nil, err
	}
	svc.pipeline = pipeline

	return svc, nil
}

func (s *PipelineService) buildPipeline() (*engine.Pipeline, error) {
	timeout, err := time.ParseDuration(s.cfg.Engine.GenerationTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid generation timeout: %w", err)
	}
	retryInterval, err := time.ParseDuration(s.cfg.Engine.RetryInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid retry interval: %w", err)
	}

	seed := s.cfg.Engine.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	registry, err := agent.NewDefaultRegistry(s.textClient, s.imageClient, s.logger)
	if err != nil {
		return nil, err
	}

	planner := engine.NewPlanner(s.logger)
	assigner := engine.NewAssigner(rand.New(rand.NewSource(seed)), s.logger)
	describer := engine.NewDescriber(
		&textGenAdapter{client: s.textClient},
		engine.DescriberConfig{
			MaxRetries:    s.cfg.Engine.MaxRetries,
			RetryInterval: retryInterval,
		},
		nil,
		s.logger,
	)
	validator := engine.NewValidator(s.logger)
	dispatcher := engine.NewDispatcher(registry, engine.DispatcherConfig{
		Concurrency:   int64(s.cfg.Engine.Concurrency),
		Timeout:       timeout,
		MaxRetries:    s.cfg.Engine.MaxRetries,
		RetryInterval: retryInterval,
	}, nil, s.logger)

	return engine.NewPipeline(planner, assigner, describer, validator, dispatcher, s.logger), nil
}

// Generate starts a full pipeline run for a campaign. The run executes in the
// background; progress is observable through Progress and Plan.
func (s *PipelineService) Generate(ctx context.Context, campaignID string) (string, error) {
	runCtx, cancel := context.WithCancel(context.Background())

	// Claim the campaign before touching the store. The reservation is what
	// makes a second Generate fail while this one is still loading its input.
	reserved, prev, err := s.reserveRun(campaignID, cancel)
	if err != nil {
		cancel()
		return "", err
	}

	campaign, err := s.store.GetCampaign(campaignID)
	if err != nil {
		s.releaseRun(campaignID, reserved, prev)
		cancel()
		return "", err
	}

	input, err := s.buildInput(ctx, campaign)
	if err != nil {
		s.releaseRun(campaignID, reserved, prev)
		cancel()
		return "", err
	}

	run := &models.GenerationRun{
		CampaignID: campaignID,
		Status:     models.CampaignStatusGenerating,
		StartedAt:  time.Now(),
	}
	if err := s.store.CreateRun(run); err != nil {
		s.releaseRun(campaignID, reserved, prev)
		cancel()
		return "", fmt.Errorf("failed to create generation run: %w", err)
	}

	totalSlots := engine.TotalDays(input.Config.StartDate, input.Config.EndDate) * input.Config.PublicationsPerDay
	tracker := progress.NewTracker(totalSlots, s.logger)

	s.mu.Lock()
	reserved.runID = run.ID
	reserved.tracker = tracker
	reserved.input = input
	s.mu.Unlock()

	if err := s.store.UpdateCampaignStatus(campaignID, models.CampaignStatusGenerating); err != nil {
		s.logger.Error("Failed to update campaign status", zap.Error(err))
	}

	go s.execute(runCtx, campaignID, run, input, tracker)

	return run.ID, nil
}

// reserveRun marks the campaign as running under the lock and returns the new
// state together with whatever state the campaign held before. Errors when a
// run is already in progress.
func (s *PipelineService) reserveRun(campaignID string, cancel context.CancelFunc) (*runState, *runState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.runs[campaignID]
	if prev != nil && prev.running {
		return nil, nil, fmt.Errorf("campaign %s is already generating", campaignID)
	}

	reserved := &runState{cancel: cancel, running: true}
	s.runs[campaignID] = reserved
	return reserved, prev, nil
}

// releaseRun undoes a reservation whose setup failed, restoring the state the
// campaign held before the reservation.
func (s *PipelineService) releaseRun(campaignID string, reserved, prev *runState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs[campaignID] != reserved {
		return
	}
	if prev != nil {
		s.runs[campaignID] = prev
	} else {
		delete(s.runs, campaignID)
	}
}

func (s *PipelineService) execute(ctx context.Context, campaignID string, run *models.GenerationRun, input engine.PipelineInput, tracker *progress.Tracker) {
	defer func() {
		s.mu.Lock()
		if state, ok := s.runs[campaignID]; ok {
			state.running = false
		}
		s.mu.Unlock()
	}()

	plan, err := s.pipeline.Run(ctx, input, tracker)
	now := time.Now()

	if err != nil {
		s.logger.Error("Pipeline run failed",
			zap.String("campaign_id", campaignID),
			zap.Error(err))

		run.Status = models.CampaignStatusFailed
		run.Error = err.Error()
		run.FinishedAt = &now
		if err := s.store.UpdateRun(run); err != nil {
			s.logger.Error("Failed to update generation run", zap.Error(err))
		}
		if err := s.store.UpdateCampaignStatus(campaignID, models.CampaignStatusFailed); err != nil {
			s.logger.Error("Failed to update campaign status", zap.Error(err))
		}
		tracker.Complete("generation failed: " + err.Error())
		return
	}

	s.mu.Lock()
	if state, ok := s.runs[campaignID]; ok {
		state.plan = plan
	}
	s.mu.Unlock()

	s.persistPlan(campaignID, run, plan)
}

func (s *PipelineService) persistPlan(campaignID string, run *models.GenerationRun, plan *engine.Plan) {
	items := planToItems(run.ID, campaignID, plan)
	if err := s.store.ReplacePlanItems(campaignID, items); err != nil {
		s.logger.Error("Failed to persist plan items",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
	}

	now := time.Now()
	run.TotalSlots = len(plan.Slots)
	run.CompletedSlots = plan.CompletedCount()
	run.FailedSlots = len(plan.FailedSlots)
	run.FinishedAt = &now
	run.Status = campaignStatusForPlan(plan)
	if plan.Report != nil {
		run.QualityScore = plan.Report.OverallScore
		run.PublishReady = plan.Report.PublishReady
		run.CriticalIssues = plan.Report.CriticalIssues
		run.Recommendations = plan.Report.Recommendations
	}
	if err := s.store.UpdateRun(run); err != nil {
		s.logger.Error("Failed to update generation run", zap.Error(err))
	}

	if err := s.store.UpdateCampaignStatus(campaignID, run.Status); err != nil {
		s.logger.Error("Failed to update campaign status", zap.Error(err))
	}
}

// Cancel stops an in-progress run. Already-generated slots stay intact.
func (s *PipelineService) Cancel(campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.runs[campaignID]
	if !ok || !state.running {
		return fmt.Errorf("campaign %s has no run in progress", campaignID)
	}
	state.cancel()
	return nil
}

// Progress returns the notifications and counters of the campaign's current
// run. latest <= 0 returns the full log.
func (s *PipelineService) Progress(campaignID string, latest int) ([]progress.Notification, progress.Counters, error) {
	s.mu.Lock()
	state, ok := s.runs[campaignID]
	s.mu.Unlock()

	if !ok || state.tracker == nil {
		return nil, progress.Counters{}, fmt.Errorf("campaign %s has no generation run", campaignID)
	}

	if latest > 0 {
		return state.tracker.Latest(latest), state.tracker.Counters(), nil
	}
	return state.tracker.Snapshot(), state.tracker.Counters(), nil
}

// Plan returns the campaign's current plan, loading it from the store when
// the service holds no in-memory copy (e.g. after a restart).
func (s *PipelineService) Plan(campaignID string) (*engine.Plan, error) {
	s.mu.Lock()
	state, ok := s.runs[campaignID]
	s.mu.Unlock()

	if ok && state.plan != nil {
		// Regeneration mutates the stored plan's maps; callers get a copy
		// so a concurrent read never races a regenerating slot.
		return state.plan.Clone(), nil
	}

	items, err := s.store.GetPlanItems(campaignID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("campaign %s has no plan", campaignID)
	}
	return planFromItems(campaignID, items), nil
}

// RegeneratePlan discards the campaign's plan and runs the pipeline again
// with the same configuration.
func (s *PipelineService) RegeneratePlan(ctx context.Context, campaignID string) (string, error) {
	return s.Generate(ctx, campaignID)
}

// RegenerateSlot re-runs generation for a single slot, leaving the rest of
// the plan untouched, and persists the updated item.
func (s *PipelineService) RegenerateSlot(ctx context.Context, campaignID, slotID string) error {
	s.mu.Lock()
	state, ok := s.runs[campaignID]
	if ok && state.running {
		s.mu.Unlock()
		return fmt.Errorf("campaign %s is generating; retry once the run finishes", campaignID)
	}
	s.mu.Unlock()

	plan, err := s.Plan(campaignID)
	if err != nil {
		return err
	}

	campaign, err := s.store.GetCampaign(campaignID)
	if err != nil {
		return err
	}
	input, err := s.buildInput(ctx, campaign)
	if err != nil {
		return err
	}

	var tracker *progress.Tracker
	if ok {
		tracker = state.tracker
	} else {
		tracker = progress.NewTracker(len(plan.Slots), s.logger)
		s.mu.Lock()
		state = &runState{tracker: tracker, plan: plan, input: input}
		s.runs[campaignID] = state
		s.mu.Unlock()
	}

	if err := s.pipeline.RegenerateSlot(ctx, input, plan, slotID, tracker); err != nil {
		return err
	}

	s.mu.Lock()
	state.plan = plan
	s.mu.Unlock()

	// Persist the regenerated item in place.
	item, err := s.store.GetPlanItemBySlot(slotID)
	if err != nil {
		return err
	}
	applySlotToItem(item, plan, slotID)
	if err := s.store.UpdatePlanItem(item); err != nil {
		return fmt.Errorf("failed to persist regenerated slot: %w", err)
	}

	if err := s.store.UpdateCampaignStatus(campaignID, campaignStatusForPlan(plan)); err != nil {
		s.logger.Error("Failed to update campaign status", zap.Error(err))
	}

	return nil
}

// buildInput assembles the engine input: campaign config, branding and the
// workspace's analyzed resources and templates.
func (s *PipelineService) buildInput(ctx context.Context, campaign *models.Campaign) (engine.PipelineInput, error) {
	cfg := &engine.CampaignConfig{
		CampaignID:         campaign.ID,
		Objective:          campaign.Objective,
		Brief:              campaign.Brief,
		StartDate:          campaign.StartDate,
		EndDate:            campaign.EndDate,
		PlatformWeights:    campaign.PlatformWeights,
		PublicationsPerDay: campaign.PublicationsPerDay,
		ResourceIDs:        campaign.ResourceIDs,
		TemplateIDs:        campaign.TemplateIDs,
		Restrictions:       campaign.Restrictions,
		BusinessObjectives: campaign.BusinessObjectives,
	}

	branding := engine.Branding{
		Voice:  campaign.BrandVoice,
		Values: campaign.BrandValues,
	}

	resources, err := s.loadResources(ctx, campaign)
	if err != nil {
		return engine.PipelineInput{}, err
	}
	templates, err := s.loadTemplates(ctx, campaign)
	if err != nil {
		return engine.PipelineInput{}, err
	}

	return engine.PipelineInput{
		Config:    cfg,
		Branding:  branding,
		Resources: resources,
		Templates: templates,
	}, nil
}

func (s *PipelineService) loadResources(ctx context.Context, campaign *models.Campaign) ([]engine.ResourceMetadata, error) {
	rows, err := s.store.ListResources(campaign.WorkspaceID, campaign.ResourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}

	out := make([]engine.ResourceMetadata, 0, len(rows))
	for _, row := range rows {
		meta := engine.ResourceMetadata{
			ID:        row.ID,
			MediaType: row.MediaType,
			URL:       row.URL,
		}

		if row.AnalyzedAt != nil {
			meta.Analysis = &engine.ResourceAnalysis{
				VisualDescription:  row.VisualDescription,
				SuggestedUses:      row.SuggestedUses,
				Mood:               row.Mood,
				BrandCompatibility: row.BrandCompatibility,
			}
			s.cache.Seed(map[string]*engine.ResourceAnalysis{row.ID: meta.Analysis}, nil)
		} else {
			analysis, err := s.cache.Resource(ctx, meta)
			if err != nil {
				// Analysis is an enrichment; a failed call degrades the
				// assignment hints, not the run.
				s.logger.Warn("resource analysis failed",
					zap.String("resource_id", row.ID),
					zap.Error(err))
			} else {
				meta.Analysis = analysis
			}
		}

		out = append(out, meta)
	}
	return out, nil
}

func (s *PipelineService) loadTemplates(ctx context.Context, campaign *models.Campaign) ([]engine.TemplateMetadata, error) {
	rows, err := s.store.ListTemplates(campaign.WorkspaceID, campaign.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	out := make([]engine.TemplateMetadata, 0, len(rows))
	for _, row := range rows {
		meta := engine.TemplateMetadata{
			ID:  row.ID,
			URL: row.URL,
		}

		if row.AnalyzedAt != nil {
			meta.Analysis = &engine.TemplateAnalysis{
				LayoutStrengths: row.LayoutStrengths,
				TextCapacity:    row.TextCapacity,
				NetworkAptitude: row.NetworkAptitude,
			}
			s.cache.Seed(nil, map[string]*engine.TemplateAnalysis{row.ID: meta.Analysis})
		} else {
			analysis, err := s.cache.Template(ctx, meta)
			if err != nil {
				s.logger.Warn("template analysis failed",
					zap.String("template_id", row.ID),
					zap.Error(err))
			} else {
				meta.Analysis = analysis
			}
		}

		out = append(out, meta)
	}
	return out, nil
}

// textGenAdapter exposes the text backend client through the engine's
// generator interfaces.
type textGenAdapter struct {
	client *backend.TextClient
}

func (a *textGenAdapter) GenerateDescription(ctx context.Context, req engine.DescriptionRequest) (string, error) {
	resp, err := a.client.GenerateText(ctx, descriptionToTextRequest(req))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (a *textGenAdapter) GenerateDescriptions(ctx context.Context, reqs []engine.DescriptionRequest) ([]string, error) {
	if !a.client.SupportsBatch() {
		texts := make([]string, len(reqs))
		for i, req := range reqs {
			text, err := a.GenerateDescription(ctx, req)
			if err != nil {
				return nil, err
			}
			texts[i] = text
		}
		return texts, nil
	}

	wire := make([]backend.TextRequest, len(reqs))
	for i, req := range reqs {
		wire[i] = descriptionToTextRequest(req)
	}
	resps, err := a.client.GenerateBatch(ctx, wire)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(resps))
	for i, resp := range resps {
		texts[i] = resp.Text
	}
	return texts, nil
}

func descriptionToTextRequest(req engine.DescriptionRequest) backend.TextRequest {
	return backend.TextRequest{
		Objective:    req.Objective,
		Brief:        req.Brief,
		Platform:     req.Platform,
		ContentType:  string(req.ContentType),
		BrandVoice:   req.Branding.Voice,
		BrandValues:  req.Branding.Values,
		Restrictions: req.Restrictions,
		MediaHints:   req.MediaHints,
		TemplateHint: req.TemplateHint,
	}
}

// backendAnalyzer computes semantic analyses through the image backend and
// persists them so restarts keep the cache warm.
type backendAnalyzer struct {
	client *backend.ImageClient
	store  *Store
	logger *zap.Logger
}

func (a *backendAnalyzer) AnalyzeResource(ctx context.Context, res engine.ResourceMetadata) (*engine.ResourceAnalysis, error) {
	resp, err := a.client.AnalyzeResource(ctx, backend.ResourceAnalysisRequest{
		ResourceID: res.ID,
		MediaType:  res.MediaType,
		URL:        res.URL,
	})
	if err != nil {
		return nil, err
	}

	if err := a.store.SaveResourceAnalysis(res.ID, resp.VisualDescription, resp.SuggestedUses, resp.Mood, resp.BrandCompatibility); err != nil {
		a.logger.Error("Failed to persist resource analysis",
			zap.String("resource_id", res.ID),
			zap.Error(err))
	}

	return &engine.ResourceAnalysis{
		VisualDescription:  resp.VisualDescription,
		SuggestedUses:      resp.SuggestedUses,
		Mood:               resp.Mood,
		BrandCompatibility: resp.BrandCompatibility,
	}, nil
}

func (a *backendAnalyzer) AnalyzeTemplate(ctx context.Context, tpl engine.TemplateMetadata) (*engine.TemplateAnalysis, error) {
	resp, err := a.client.AnalyzeTemplate(ctx, backend.TemplateAnalysisRequest{
		TemplateID: tpl.ID,
		URL:        tpl.URL,
	})
	if err != nil {
		return nil, err
	}

	if err := a.store.SaveTemplateAnalysis(tpl.ID, resp.LayoutStrengths, resp.TextCapacity, resp.NetworkAptitude); err != nil {
		a.logger.Error("Failed to persist template analysis",
			zap.String("template_id", tpl.ID),
			zap.Error(err))
	}

	return &engine.TemplateAnalysis{
		LayoutStrengths: resp.LayoutStrengths,
		TextCapacity:    resp.TextCapacity,
		NetworkAptitude: resp.NetworkAptitude,
	}, nil
}

func campaignStatusForPlan(plan *engine.Plan) string {
	switch plan.State {
	case engine.PlanStateCompleted:
		return models.CampaignStatusCompleted
	case engine.PlanStatePartiallyCompleted, engine.PlanStateCancelled:
		return models.CampaignStatusPartiallyCompleted
	default:
		return models.CampaignStatusGenerating
	}
}

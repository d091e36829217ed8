package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DescriptionRequest is one slot's request to the text backend for a short
// idea description.
type DescriptionRequest struct {
	SlotID       string
	Objective    string
	Brief        string
	Platform     string
	ContentType  ContentType
	Restrictions []string
	Branding     Branding
	MediaHints   []string
	TemplateHint string
}

// TextGenerator produces idea descriptions one at a time.
type TextGenerator interface {
	GenerateDescription(ctx context.Context, req DescriptionRequest) (string, error)
}

// BulkTextGenerator additionally supports whole-campaign batches. The
// describer upgrades to it when the generator implements it.
type BulkTextGenerator interface {
	TextGenerator
	GenerateDescriptions(ctx context.Context, reqs []DescriptionRequest) ([]string, error)
}

type DescriberConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
}

// Describer turns planned slots into pending ContentDescriptions. The whole
// step is atomic: if the backend fails after retries, no partial set of
// descriptions is returned.
type Describer struct {
	gen           TextGenerator
	maxRetries    int
	retryInterval time.Duration
	isTemporary   ErrorChecker
	logger        *zap.Logger
}

func NewDescriber(gen TextGenerator, cfg DescriberConfig, isTemp ErrorChecker, logger *zap.Logger) *Describer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if isTemp == nil {
		isTemp = DefaultErrorChecker
	}

	return &Describer{
		gen:           gen,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		isTemporary:   isTemp,
		logger:        logger,
	}
}

// Generate produces one pending description per slot. Descriptions carry the
// resource/template assignment and any assignment warnings.
func (d *Describer) Generate(
	ctx context.Context,
	cfg *CampaignConfig,
	branding Branding,
	slots []ContentSlot,
	assignments map[string]*Assignment,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
) (map[string]*ContentDescription, error) {
	reqs := make([]DescriptionRequest, 0, len(slots))
	for _, slot := range slots {
		reqs = append(reqs, d.buildRequest(cfg, branding, slot, assignments[slot.ID], resources, templates))
	}

	texts, err := d.generateTexts(ctx, reqs)
	if err != nil {
		return nil, &GenerationError{Stage: "description", Err: err}
	}

	descriptions := make(map[string]*ContentDescription, len(slots))
	for i, slot := range slots {
		assignment := assignments[slot.ID]
		desc := &ContentDescription{
			SlotID: slot.ID,
			Text:   texts[i],
			Status: DescriptionPending,
		}
		if assignment != nil {
			desc.ResourceIDs = assignment.ResourceIDs
			desc.TemplateID = assignment.TemplateID
			desc.Warnings = assignment.Warnings
		}
		descriptions[slot.ID] = desc
	}

	d.logger.Info("descriptions generated",
		zap.String("campaign_id", cfg.CampaignID),
		zap.Int("count", len(descriptions)))

	return descriptions, nil
}

// GenerateOne regenerates the description for a single slot.
func (d *Describer) GenerateOne(
	ctx context.Context,
	cfg *CampaignConfig,
	branding Branding,
	slot ContentSlot,
	assignment *Assignment,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
) (*ContentDescription, error) {
	req := d.buildRequest(cfg, branding, slot, assignment, resources, templates)

	text, err := d.retryText(ctx, func(ctx context.Context) (string, error) {
		return d.gen.GenerateDescription(ctx, req)
	})
	if err != nil {
		return nil, &GenerationError{Stage: "description", Err: err}
	}

	desc := &ContentDescription{
		SlotID: slot.ID,
		Text:   text,
		Status: DescriptionPending,
	}
	if assignment != nil {
		desc.ResourceIDs = assignment.ResourceIDs
		desc.TemplateID = assignment.TemplateID
		desc.Warnings = assignment.Warnings
	}
	return desc, nil
}

// generateTexts prefers one bulk round trip per campaign; without bulk
// support it falls back to sequential per-slot calls. Either way the result
// covers every request or the step fails as a whole.
func (d *Describer) generateTexts(ctx context.Context, reqs []DescriptionRequest) ([]string, error) {
	if bulk, ok := d.gen.(BulkTextGenerator); ok {
		return backoff.RetryWithData(func() ([]string, error) {
			texts, err := bulk.GenerateDescriptions(ctx, reqs)
			if err != nil {
				return nil, d.classify(err)
			}
			if len(texts) != len(reqs) {
				return nil, backoff.Permanent(fmt.Errorf("bulk generation returned %d descriptions for %d slots", len(texts), len(reqs)))
			}
			return texts, nil
		}, d.newBackoff(ctx))
	}

	texts := make([]string, len(reqs))
	for i, req := range reqs {
		text, err := d.retryText(ctx, func(ctx context.Context) (string, error) {
			return d.gen.GenerateDescription(ctx, req)
		})
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", req.SlotID, err)
		}
		texts[i] = text
	}
	return texts, nil
}

func (d *Describer) retryText(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	return backoff.RetryWithData(func() (string, error) {
		text, err := fn(ctx)
		if err != nil {
			return "", d.classify(err)
		}
		return text, nil
	}, d.newBackoff(ctx))
}

func (d *Describer) classify(err error) error {
	if d.isTemporary(err) {
		return err
	}
	return backoff.Permanent(err)
}

func (d *Describer) newBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryInterval
	return backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(d.maxRetries))
}

func (d *Describer) buildRequest(
	cfg *CampaignConfig,
	branding Branding,
	slot ContentSlot,
	assignment *Assignment,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
) DescriptionRequest {
	req := DescriptionRequest{
		SlotID:       slot.ID,
		Objective:    cfg.Objective,
		Brief:        cfg.Brief,
		Platform:     slot.Platform,
		ContentType:  slot.ContentType,
		Restrictions: cfg.Restrictions,
		Branding:     branding,
	}

	if assignment == nil {
		return req
	}

	for _, id := range assignment.ResourceIDs {
		if res, ok := resources[id]; ok && res.Analysis != nil && res.Analysis.VisualDescription != "" {
			req.MediaHints = append(req.MediaHints, res.Analysis.VisualDescription)
		}
	}

	if assignment.TemplateID != "" {
		if tpl, ok := templates[assignment.TemplateID]; ok && tpl.Analysis != nil && len(tpl.Analysis.LayoutStrengths) > 0 {
			req.TemplateHint = tpl.Analysis.LayoutStrengths[0]
		}
	}

	return req
}

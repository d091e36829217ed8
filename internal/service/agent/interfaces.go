package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
)

// Agent names, one per content type.
const (
	NameText     = "text"
	NameImage    = "text-image"
	NameTemplate = "text-template"
	NameCarousel = "carousel"
)

// TextBackend is the slice of the text client the agents use.
type TextBackend interface {
	GenerateText(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error)
}

// ImageBackend is the slice of the image client the image-capable agents use.
type ImageBackend interface {
	GenerateImage(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error)
	GenerateCarousel(ctx context.Context, req backend.CarouselRequest) (*backend.CarouselResponse, error)
}

// Registry holds the fixed content-type to agent mapping.
type Registry struct {
	agents map[engine.ContentType]engine.Agent
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		agents: make(map[engine.ContentType]engine.Agent),
		logger: logger,
	}
}

func (r *Registry) Register(contentType engine.ContentType, a engine.Agent) error {
	if _, exists := r.agents[contentType]; exists {
		return fmt.Errorf("agent for content type %s already registered", contentType)
	}

	r.agents[contentType] = a
	r.logger.Info("Agent registered",
		zap.String("content_type", string(contentType)),
		zap.String("agent", a.Name()))
	return nil
}

// Resolve implements engine.AgentResolver.
func (r *Registry) Resolve(contentType engine.ContentType) (engine.Agent, error) {
	a, exists := r.agents[contentType]
	if !exists {
		return nil, fmt.Errorf("no agent registered for content type %s", contentType)
	}
	return a, nil
}

// NewDefaultRegistry registers the four standard agents over the given
// backends.
func NewDefaultRegistry(text TextBackend, image ImageBackend, logger *zap.Logger) (*Registry, error) {
	registry := NewRegistry(logger)

	registrations := []struct {
		contentType engine.ContentType
		agent       engine.Agent
	}{
		{engine.ContentTypeText, NewTextAgent(text)},
		{engine.ContentTypeTextImage, NewImageAgent(text, image)},
		{engine.ContentTypeTextTemplate, NewTemplateAgent(text, image)},
		{engine.ContentTypeCarousel, NewCarouselAgent(text, image)},
	}

	for _, reg := range registrations {
		if err := registry.Register(reg.contentType, reg.agent); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildTextRequest translates an agent request into a text backend call,
// carrying the idea description as the generation seed.
func buildTextRequest(req engine.AgentRequest) backend.TextRequest {
	out := backend.TextRequest{
		Objective:    req.Objective,
		Brief:        req.Brief,
		Platform:     req.Slot.Platform,
		ContentType:  string(req.Slot.ContentType),
		BrandVoice:   req.Branding.Voice,
		BrandValues:  req.Branding.Values,
		Restrictions: req.Restrictions,
		Idea:         req.Description.Text,
	}

	for _, res := range req.Resources {
		if res.Analysis != nil && res.Analysis.VisualDescription != "" {
			out.MediaHints = append(out.MediaHints, res.Analysis.VisualDescription)
		}
	}
	if req.Template != nil && req.Template.Analysis != nil && len(req.Template.Analysis.LayoutStrengths) > 0 {
		out.TemplateHint = req.Template.Analysis.LayoutStrengths[0]
	}

	return out
}

func resourceIDs(req engine.AgentRequest) []string {
	ids := make([]string, 0, len(req.Resources))
	for _, res := range req.Resources {
		ids = append(ids, res.ID)
	}
	return ids
}

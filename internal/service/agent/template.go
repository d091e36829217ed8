package agent

import (
	"context"
	"fmt"

	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
)

// TemplateAgent generates copy rendered into the slot's assigned template.
type TemplateAgent struct {
	text  TextBackend
	image ImageBackend
}

func NewTemplateAgent(text TextBackend, image ImageBackend) *TemplateAgent {
	return &TemplateAgent{text: text, image: image}
}

func (a *TemplateAgent) Name() string {
	return NameTemplate
}

func (a *TemplateAgent) Generate(ctx context.Context, req engine.AgentRequest) (*engine.GenerationResult, error) {
	if req.Template == nil {
		return nil, fmt.Errorf("slot %s has no template assigned", req.Slot.ID)
	}

	textResp, err := a.text.GenerateText(ctx, buildTextRequest(req))
	if err != nil {
		return nil, err
	}

	dims := dimensionsFor(req.Slot.Platform)
	imageResp, err := a.image.GenerateImage(ctx, backend.ImageRequest{
		Prompt:     textResp.Text,
		TemplateID: req.Template.ID,
		Platform:   req.Slot.Platform,
		Width:      dims.width,
		Height:     dims.height,
	})
	if err != nil {
		return nil, err
	}

	return &engine.GenerationResult{
		Text:     textResp.Text,
		ImageURL: imageResp.URL,
	}, nil
}

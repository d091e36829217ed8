package agent

import (
	"context"
	"fmt"

	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
)

const carouselFrames = 3

// CarouselAgent generates copy plus a multi-image carousel, one frame per
// assigned resource (up to three).
type CarouselAgent struct {
	text  TextBackend
	image ImageBackend
}

func NewCarouselAgent(text TextBackend, image ImageBackend) *CarouselAgent {
	return &CarouselAgent{text: text, image: image}
}

func (a *CarouselAgent) Name() string {
	return NameCarousel
}

func (a *CarouselAgent) Generate(ctx context.Context, req engine.AgentRequest) (*engine.GenerationResult, error) {
	textResp, err := a.text.GenerateText(ctx, buildTextRequest(req))
	if err != nil {
		return nil, err
	}

	prompts := a.framePrompts(req)

	dims := dimensionsFor(req.Slot.Platform)
	carouselReq := backend.CarouselRequest{
		Prompts:     prompts,
		ResourceIDs: resourceIDs(req),
		Platform:    req.Slot.Platform,
		Width:       dims.width,
		Height:      dims.height,
	}
	if req.Template != nil {
		carouselReq.TemplateID = req.Template.ID
	}

	imageResp, err := a.image.GenerateCarousel(ctx, carouselReq)
	if err != nil {
		return nil, err
	}

	return &engine.GenerationResult{
		Text:          textResp.Text,
		ImageURLs:     imageResp.URLs,
		ResourcesUsed: resourceIDs(req),
	}, nil
}

// framePrompts derives one prompt per frame. Frames backed by an analyzed
// resource lean on its visual description; the rest reuse the idea text.
func (a *CarouselAgent) framePrompts(req engine.AgentRequest) []string {
	frames := len(req.Resources)
	if frames == 0 || frames > carouselFrames {
		frames = carouselFrames
	}

	prompts := make([]string, 0, frames)
	for i := 0; i < frames; i++ {
		if i < len(req.Resources) && req.Resources[i].Analysis != nil && req.Resources[i].Analysis.VisualDescription != "" {
			prompts = append(prompts, fmt.Sprintf("%s (%s)", req.Description.Text, req.Resources[i].Analysis.VisualDescription))
			continue
		}
		prompts = append(prompts, req.Description.Text)
	}
	return prompts
}

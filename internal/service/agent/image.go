package agent

import (
	"context"

	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
)

type dimensions struct {
	width  int
	height int
}

// Target dimensions per platform feed format.
var platformDimensions = map[string]dimensions{
	"instagram": {1080, 1350},
	"linkedin":  {1200, 627},
	"tiktok":    {1080, 1920},
	"facebook":  {1200, 630},
	"x":         {1600, 900},
}

var defaultDimensions = dimensions{1080, 1080}

func dimensionsFor(platform string) dimensions {
	if d, ok := platformDimensions[platform]; ok {
		return d
	}
	return defaultDimensions
}

// ImageAgent generates copy plus a single image from the assigned resource.
type ImageAgent struct {
	text  TextBackend
	image ImageBackend
}

func NewImageAgent(text TextBackend, image ImageBackend) *ImageAgent {
	return &ImageAgent{text: text, image: image}
}

func (a *ImageAgent) Name() string {
	return NameImage
}

func (a *ImageAgent) Generate(ctx context.Context, req engine.AgentRequest) (*engine.GenerationResult, error) {
	textResp, err := a.text.GenerateText(ctx, buildTextRequest(req))
	if err != nil {
		return nil, err
	}

	dims := dimensionsFor(req.Slot.Platform)
	imageResp, err := a.image.GenerateImage(ctx, backend.ImageRequest{
		Prompt:      req.Description.Text,
		ResourceIDs: resourceIDs(req),
		Platform:    req.Slot.Platform,
		Width:       dims.width,
		Height:      dims.height,
	})
	if err != nil {
		return nil, err
	}

	return &engine.GenerationResult{
		Text:          textResp.Text,
		ImageURL:      imageResp.URL,
		ResourcesUsed: resourceIDs(req),
	}, nil
}

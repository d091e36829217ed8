package agent

import (
	"context"

	"github.com/cadencehq/cadence/internal/service/engine"
)

// TextAgent generates plain copy: no media, no template.
type TextAgent struct {
	text TextBackend
}

func NewTextAgent(text TextBackend) *TextAgent {
	return &TextAgent{text: text}
}

func (a *TextAgent) Name() string {
	return NameText
}

func (a *TextAgent) Generate(ctx context.Context, req engine.AgentRequest) (*engine.GenerationResult, error) {
	resp, err := a.text.GenerateText(ctx, buildTextRequest(req))
	if err != nil {
		return nil, err
	}

	return &engine.GenerationResult{
		Text: resp.Text,
	}, nil
}

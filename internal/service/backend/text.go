package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/config"
)

// TextRequest carries everything the text backend needs for one piece of
// copy: campaign framing, placement, brand constraints and, for per-item
// generation, the idea description the copy should expand.
type TextRequest struct {
	Objective    string   `json:"objective"`
	Brief        string   `json:"brief"`
	Platform     string   `json:"platform"`
	ContentType  string   `json:"content_type"`
	BrandVoice   string   `json:"brand_voice"`
	BrandValues  []string `json:"brand_values"`
	Restrictions []string `json:"restrictions"`
	Idea         string   `json:"idea,omitempty"`
	MediaHints   []string `json:"media_hints,omitempty"`
	TemplateHint string   `json:"template_hint,omitempty"`
}

type TextResponse struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type batchTextRequest struct {
	Model    string        `json:"model,omitempty"`
	Requests []TextRequest `json:"requests"`
}

type batchTextResponse struct {
	Results []TextResponse `json:"results"`
}

// TextClient talks to the text-generation backend.
type TextClient struct {
	*client
	bulkSupported bool
}

func NewTextClient(cfg config.BackendConfig, logger *zap.Logger) (*TextClient, error) {
	c, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &TextClient{client: c, bulkSupported: true}, nil
}

// GenerateText produces one piece of copy.
func (c *TextClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	body := struct {
		Model string `json:"model,omitempty"`
		TextRequest
	}{Model: c.model, TextRequest: req}

	var resp TextResponse
	if err := c.post(ctx, "text.generate", "/v1/text/generate", body, &resp); err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, &Error{Kind: KindMalformed, Op: "text.generate", StatusCode: 200}
	}
	return &resp, nil
}

// GenerateBatch produces copy for a whole campaign in one round trip. The
// result slice is positionally aligned with the request slice.
func (c *TextClient) GenerateBatch(ctx context.Context, reqs []TextRequest) ([]TextResponse, error) {
	var resp batchTextResponse
	body := batchTextRequest{Model: c.model, Requests: reqs}
	if err := c.post(ctx, "text.batch", "/v1/text/generate/batch", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(reqs) {
		return nil, &Error{Kind: KindMalformed, Op: "text.batch", StatusCode: 200}
	}
	return resp.Results, nil
}

// SupportsBatch reports whether the backend exposes the bulk endpoint.
func (c *TextClient) SupportsBatch() bool {
	return c.bulkSupported
}

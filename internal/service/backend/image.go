package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/config"
)

// ImageRequest carries the references and target dimensions for one image.
type ImageRequest struct {
	Prompt      string   `json:"prompt"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
	TemplateID  string   `json:"template_id,omitempty"`
	Platform    string   `json:"platform"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
}

type ImageResponse struct {
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CarouselRequest is the multi-image variant: one prompt per frame.
type CarouselRequest struct {
	Prompts     []string `json:"prompts"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
	TemplateID  string   `json:"template_id,omitempty"`
	Platform    string   `json:"platform"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
}

type CarouselResponse struct {
	URLs     []string          `json:"urls"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ImageClient talks to the image-generation backend.
type ImageClient struct {
	*client
}

func NewImageClient(cfg config.BackendConfig, logger *zap.Logger) (*ImageClient, error) {
	c, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ImageClient{client: c}, nil
}

func (c *ImageClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	var resp ImageResponse
	if err := c.post(ctx, "image.generate", "/v1/images/generate", req, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		return nil, &Error{Kind: KindMalformed, Op: "image.generate", StatusCode: 200}
	}
	return &resp, nil
}

func (c *ImageClient) GenerateCarousel(ctx context.Context, req CarouselRequest) (*CarouselResponse, error) {
	var resp CarouselResponse
	if err := c.post(ctx, "image.carousel", "/v1/images/carousel", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.URLs) == 0 {
		return nil, &Error{Kind: KindMalformed, Op: "image.carousel", StatusCode: 200}
	}
	return &resp, nil
}

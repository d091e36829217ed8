package agent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/service/backend"
	"github.com/cadencehq/cadence/internal/service/engine"
)

// mockTextBackend implements TextBackend with a pluggable func.
type mockTextBackend struct {
	generateFunc func(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error)
}

func (m *mockTextBackend) GenerateText(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error) {
	return m.generateFunc(ctx, req)
}

// mockImageBackend implements ImageBackend with pluggable funcs.
type mockImageBackend struct {
	imageFunc    func(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error)
	carouselFunc func(ctx context.Context, req backend.CarouselRequest) (*backend.CarouselResponse, error)
}

func (m *mockImageBackend) GenerateImage(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error) {
	return m.imageFunc(ctx, req)
}

func (m *mockImageBackend) GenerateCarousel(ctx context.Context, req backend.CarouselRequest) (*backend.CarouselResponse, error) {
	return m.carouselFunc(ctx, req)
}

func okTextBackend() *mockTextBackend {
	return &mockTextBackend{
		generateFunc: func(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error) {
			return &backend.TextResponse{Text: "copy"}, nil
		},
	}
}

func okImageBackend() *mockImageBackend {
	return &mockImageBackend{
		imageFunc: func(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error) {
			return &backend.ImageResponse{URL: "https://cdn.example.com/img.png"}, nil
		},
		carouselFunc: func(ctx context.Context, req backend.CarouselRequest) (*backend.CarouselResponse, error) {
			urls := make([]string, len(req.Prompts))
			for i := range urls {
				urls[i] = "https://cdn.example.com/frame.png"
			}
			return &backend.CarouselResponse{URLs: urls}, nil
		},
	}
}

func agentRequest(contentType engine.ContentType) engine.AgentRequest {
	req := engine.AgentRequest{
		Slot:        engine.ContentSlot{ID: "s1", Platform: "instagram", ContentType: contentType},
		Description: &engine.ContentDescription{SlotID: "s1", Text: "a fresh idea"},
		Objective:   "awareness",
		Branding:    engine.Branding{Voice: "friendly"},
	}
	if contentType.NeedsResources() {
		req.Resources = []engine.ResourceMetadata{
			{ID: "r1", Analysis: &engine.ResourceAnalysis{VisualDescription: "sunset"}},
		}
	}
	if contentType.NeedsTemplate() {
		req.Template = &engine.TemplateMetadata{ID: "t1"}
	}
	return req
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	agent := NewTextAgent(okTextBackend())

	if err := registry.Register(engine.ContentTypeText, agent); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := registry.Register(engine.ContentTypeText, agent); err == nil {
		t.Error("duplicate Register() succeeded, want error")
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	if _, err := registry.Resolve(engine.ContentTypeCarousel); err == nil {
		t.Error("Resolve() on empty registry succeeded, want error")
	}
}

func TestDefaultRegistryCoversAllContentTypes(t *testing.T) {
	registry, err := NewDefaultRegistry(okTextBackend(), okImageBackend(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}

	wantNames := map[engine.ContentType]string{
		engine.ContentTypeText:         NameText,
		engine.ContentTypeTextImage:    NameImage,
		engine.ContentTypeTextTemplate: NameTemplate,
		engine.ContentTypeCarousel:     NameCarousel,
	}

	for contentType, wantName := range wantNames {
		a, err := registry.Resolve(contentType)
		if err != nil {
			t.Errorf("Resolve(%s) error = %v", contentType, err)
			continue
		}
		if a.Name() != wantName {
			t.Errorf("Resolve(%s).Name() = %s, want %s", contentType, a.Name(), wantName)
		}
	}
}

func TestTextAgentGenerate(t *testing.T) {
	var captured backend.TextRequest
	text := &mockTextBackend{
		generateFunc: func(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error) {
			captured = req
			return &backend.TextResponse{Text: "copy"}, nil
		},
	}

	result, err := NewTextAgent(text).Generate(context.Background(), agentRequest(engine.ContentTypeText))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Text != "copy" {
		t.Errorf("Text = %q", result.Text)
	}
	if captured.Idea != "a fresh idea" {
		t.Errorf("Idea = %q, want the slot description", captured.Idea)
	}
	if captured.Platform != "instagram" {
		t.Errorf("Platform = %q", captured.Platform)
	}
}

func TestImageAgentGenerate(t *testing.T) {
	var captured backend.ImageRequest
	image := okImageBackend()
	image.imageFunc = func(ctx context.Context, req backend.ImageRequest) (*backend.ImageResponse, error) {
		captured = req
		return &backend.ImageResponse{URL: "https://cdn.example.com/img.png"}, nil
	}

	result, err := NewImageAgent(okTextBackend(), image).Generate(context.Background(), agentRequest(engine.ContentTypeTextImage))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.ImageURL == "" {
		t.Error("missing image URL")
	}
	if len(result.ResourcesUsed) != 1 || result.ResourcesUsed[0] != "r1" {
		t.Errorf("ResourcesUsed = %v, want [r1]", result.ResourcesUsed)
	}
	// Instagram feed format.
	if captured.Width != 1080 || captured.Height != 1350 {
		t.Errorf("dimensions = %dx%d, want 1080x1350", captured.Width, captured.Height)
	}
}

func TestTemplateAgentRequiresTemplate(t *testing.T) {
	req := agentRequest(engine.ContentTypeTextTemplate)
	req.Template = nil

	_, err := NewTemplateAgent(okTextBackend(), okImageBackend()).Generate(context.Background(), req)
	if err == nil {
		t.Error("Generate() without template succeeded, want error")
	}
}

func TestCarouselAgentGenerate(t *testing.T) {
	var captured backend.CarouselRequest
	image := okImageBackend()
	image.carouselFunc = func(ctx context.Context, req backend.CarouselRequest) (*backend.CarouselResponse, error) {
		captured = req
		return &backend.CarouselResponse{URLs: []string{"a", "b", "c"}}, nil
	}

	req := agentRequest(engine.ContentTypeCarousel)
	req.Resources = []engine.ResourceMetadata{
		{ID: "r1", Analysis: &engine.ResourceAnalysis{VisualDescription: "sunset"}},
		{ID: "r2"},
	}

	result, err := NewCarouselAgent(okTextBackend(), image).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(result.ImageURLs) != 3 {
		t.Errorf("ImageURLs = %v, want 3 frames", result.ImageURLs)
	}
	if len(captured.Prompts) != 2 {
		t.Errorf("frame prompts = %d, want one per assigned resource", len(captured.Prompts))
	}
	if captured.TemplateID != "t1" {
		t.Errorf("TemplateID = %q, want t1", captured.TemplateID)
	}
}

func TestAgentsPropagateBackendErrors(t *testing.T) {
	failing := &mockTextBackend{
		generateFunc: func(ctx context.Context, req backend.TextRequest) (*backend.TextResponse, error) {
			return nil, &backend.Error{Kind: backend.KindRateLimit, Op: "text.generate"}
		},
	}

	_, err := NewTextAgent(failing).Generate(context.Background(), agentRequest(engine.ContentTypeText))
	var berr *backend.Error
	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want backend.Error", err)
	}
	if !berr.Temporary() {
		t.Error("rate limit error should be temporary")
	}
}

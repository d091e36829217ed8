package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/config"
)

func testBackendConfig(url string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: "2s",
	}
}

func TestTextClientGenerateText(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(TextResponse{Text: "generated copy"})
	}))
	defer ts.Close()

	client, err := NewTextClient(testBackendConfig(ts.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewTextClient() error = %v", err)
	}

	resp, err := client.GenerateText(context.Background(), TextRequest{
		Objective: "awareness",
		Platform:  "instagram",
	})
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	if resp.Text != "generated copy" {
		t.Errorf("Text = %q", resp.Text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v1/text/generate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq["model"] != "test-model" {
		t.Errorf("request model = %v", gotReq["model"])
	}
	if gotReq["platform"] != "instagram" {
		t.Errorf("request platform = %v", gotReq["platform"])
	}
}

func TestTextClientEmptyTextIsMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TextResponse{})
	}))
	defer ts.Close()

	client, _ := NewTextClient(testBackendConfig(ts.URL), zap.NewNop())
	_, err := client.GenerateText(context.Background(), TextRequest{})

	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %v, want malformed", KindOf(err))
	}
}

func TestTextClientGenerateBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchTextRequest
		json.NewDecoder(r.Body).Decode(&req)

		results := make([]TextResponse, len(req.Requests))
		for i := range req.Requests {
			results[i] = TextResponse{Text: "copy"}
		}
		json.NewEncoder(w).Encode(batchTextResponse{Results: results})
	}))
	defer ts.Close()

	client, _ := NewTextClient(testBackendConfig(ts.URL), zap.NewNop())
	if !client.SupportsBatch() {
		t.Fatal("SupportsBatch() = false")
	}

	reqs := []TextRequest{{Platform: "instagram"}, {Platform: "linkedin"}, {Platform: "tiktok"}}
	results, err := client.GenerateBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("GenerateBatch() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestTextClientBatchCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchTextResponse{Results: []TextResponse{{Text: "only one"}}})
	}))
	defer ts.Close()

	client, _ := NewTextClient(testBackendConfig(ts.URL), zap.NewNop())
	_, err := client.GenerateBatch(context.Background(), []TextRequest{{}, {}})

	if KindOf(err) != KindMalformed {
		t.Errorf("kind = %v, want malformed", KindOf(err))
	}
}

func TestErrorKindForStatus(t *testing.T) {
	tests := []struct {
		status        int
		wantKind      Kind
		wantTemporary bool
	}{
		{http.StatusUnauthorized, KindAuth, false},
		{http.StatusForbidden, KindAuth, false},
		{http.StatusTooManyRequests, KindRateLimit, true},
		{http.StatusRequestTimeout, KindTimeout, true},
		{http.StatusGatewayTimeout, KindTimeout, true},
		{http.StatusInternalServerError, KindUnavailable, true},
		{http.StatusBadGateway, KindUnavailable, true},
		{http.StatusBadRequest, KindMalformed, false},
		{http.StatusNotFound, KindMalformed, false},
	}

	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		client, _ := NewTextClient(testBackendConfig(ts.URL), zap.NewNop())
		_, err := client.GenerateText(context.Background(), TextRequest{})
		ts.Close()

		var berr *Error
		if !errors.As(err, &berr) {
			t.Errorf("status %d: error = %v, want backend.Error", tt.status, err)
			continue
		}
		if berr.Kind != tt.wantKind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, berr.Kind, tt.wantKind)
		}
		if berr.StatusCode != tt.status {
			t.Errorf("status %d: StatusCode = %d", tt.status, berr.StatusCode)
		}
		if berr.Temporary() != tt.wantTemporary {
			t.Errorf("status %d: Temporary() = %v, want %v", tt.status, berr.Temporary(), tt.wantTemporary)
		}
	}
}

func TestClientTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(TextResponse{Text: "late"})
	}))
	defer ts.Close()

	cfg := testBackendConfig(ts.URL)
	cfg.Timeout = "20ms"

	client, err := NewTextClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTextClient() error = %v", err)
	}

	_, err = client.GenerateText(context.Background(), TextRequest{})
	if KindOf(err) != KindTimeout {
		t.Errorf("kind = %v, want timeout", KindOf(err))
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() = false")
	}

	var berr *Error
	if errors.As(err, &berr) && !berr.Temporary() {
		t.Error("timeout should be temporary")
	}
}

func TestClientUnreachableHost(t *testing.T) {
	cfg := testBackendConfig("http://127.0.0.1:1")

	client, err := NewTextClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTextClient() error = %v", err)
	}

	_, err = client.GenerateText(context.Background(), TextRequest{})
	if KindOf(err) != KindUnavailable {
		t.Errorf("kind = %v, want unavailable", KindOf(err))
	}
}

func TestClientInvalidTimeoutConfig(t *testing.T) {
	cfg := testBackendConfig("http://localhost")
	cfg.Timeout = "not-a-duration"

	if _, err := NewTextClient(cfg, zap.NewNop()); err == nil {
		t.Error("NewTextClient() accepted an invalid timeout")
	}
}

func TestImageClientGenerateImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ImageResponse{URL: "https://cdn.example.com/img.png"})
	}))
	defer ts.Close()

	client, err := NewImageClient(testBackendConfig(ts.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewImageClient() error = %v", err)
	}

	resp, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "sunset"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if resp.URL == "" {
		t.Error("empty image URL")
	}
}

func TestImageClientGenerateCarousel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/carousel" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(CarouselResponse{URLs: []string{"a", "b", "c"}})
	}))
	defer ts.Close()

	client, _ := NewImageClient(testBackendConfig(ts.URL), zap.NewNop())
	resp, err := client.GenerateCarousel(context.Background(), CarouselRequest{Prompts: []string{"1", "2", "3"}})
	if err != nil {
		t.Fatalf("GenerateCarousel() error = %v", err)
	}
	if len(resp.URLs) != 3 {
		t.Errorf("got %d URLs, want 3", len(resp.URLs))
	}
}

func TestImageClientAnalysis(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/analysis/resource":
			json.NewEncoder(w).Encode(ResourceAnalysisResponse{
				VisualDescription:  "a beach at dawn",
				Mood:               "calm",
				BrandCompatibility: "high",
			})
		case "/v1/analysis/template":
			json.NewEncoder(w).Encode(TemplateAnalysisResponse{
				TextCapacity:    140,
				NetworkAptitude: []string{"instagram"},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer ts.Close()

	client, _ := NewImageClient(testBackendConfig(ts.URL), zap.NewNop())

	res, err := client.AnalyzeResource(context.Background(), ResourceAnalysisRequest{ResourceID: "r1"})
	if err != nil {
		t.Fatalf("AnalyzeResource() error = %v", err)
	}
	if res.VisualDescription != "a beach at dawn" {
		t.Errorf("VisualDescription = %q", res.VisualDescription)
	}

	tpl, err := client.AnalyzeTemplate(context.Background(), TemplateAnalysisRequest{TemplateID: "t1"})
	if err != nil {
		t.Fatalf("AnalyzeTemplate() error = %v", err)
	}
	if tpl.TextCapacity != 140 {
		t.Errorf("TextCapacity = %d, want 140", tpl.TextCapacity)
	}
}

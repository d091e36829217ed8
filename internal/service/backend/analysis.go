package backend

import "context"

// Semantic analysis endpoints. Analyses are expensive, so callers are
// expected to memoize results (see internal/service/analysis).

type ResourceAnalysisRequest struct {
	ResourceID string `json:"resource_id"`
	MediaType  string `json:"media_type"`
	URL        string `json:"url"`
}

type ResourceAnalysisResponse struct {
	VisualDescription  string   `json:"visual_description"`
	SuggestedUses      []string `json:"suggested_uses"`
	Mood               string   `json:"mood"`
	BrandCompatibility string   `json:"brand_compatibility"`
}

type TemplateAnalysisRequest struct {
	TemplateID string `json:"template_id"`
	URL        string `json:"url"`
}

type TemplateAnalysisResponse struct {
	LayoutStrengths []string `json:"layout_strengths"`
	TextCapacity    int      `json:"text_capacity"`
	NetworkAptitude []string `json:"network_aptitude"`
}

func (c *ImageClient) AnalyzeResource(ctx context.Context, req ResourceAnalysisRequest) (*ResourceAnalysisResponse, error) {
	var resp ResourceAnalysisResponse
	if err := c.post(ctx, "analysis.resource", "/v1/analysis/resource", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ImageClient) AnalyzeTemplate(ctx context.Context, req TemplateAnalysisRequest) (*TemplateAnalysisResponse, error) {
	var resp TemplateAnalysisResponse
	if err := c.post(ctx, "analysis.template", "/v1/analysis/template", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

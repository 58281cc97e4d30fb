// Package remote implements port.DocumentExtractor against an HTTP
// recognition service. The service receives the file bytes plus the profile
// hints and returns an ordered list of extracted items with per-item
// confidence and flags.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"docflow/internal/config"
	"docflow/internal/domain"
	"docflow/internal/port"
)

// Extractor calls a remote recognition provider over HTTP.
type Extractor struct {
	endpoint string
	apiKey   string
	provider string
	client   *http.Client
}

// NewExtractor creates a remote extractor from config.
func NewExtractor(cfg *config.ExtractorConfig) *Extractor {
	return &Extractor{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		provider: cfg.Provider,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

type extractRequest struct {
	Document          string          `json:"document"` // base64 file bytes
	ContentType       string          `json:"content_type"`
	ProfileKey        string          `json:"profile_key"`
	ProfileVersion    int             `json:"profile_version"`
	ExpectedItemTypes json.RawMessage `json:"expected_item_types,omitempty"`
	FlagDefinitions   json.RawMessage `json:"flag_definitions,omitempty"`
}

type extractResponseItem struct {
	ItemType                string                     `json:"item_type"`
	RawText                 string                     `json:"raw_text"`
	OCRConfidence           float64                    `json:"ocr_confidence"`
	OCRProvider             string                     `json:"ocr_provider"`
	NormalizedText          *string                    `json:"normalized_text"`
	NormalizationConfidence *float64                   `json:"normalization_confidence"`
	Flags                   map[string]domain.ItemFlag `json:"flags"`
	StructuredData          json.RawMessage            `json:"structured_data"`
}

type extractResponse struct {
	Items []extractResponseItem `json:"items"`
	Usage struct {
		ModelVersion string `json:"model_version"`
		Pages        int    `json:"pages"`
		InputTokens  int64  `json:"input_tokens"`
		OutputTokens int64  `json:"output_tokens"`
		CostCents    int64  `json:"cost_cents"`
	} `json:"usage"`
}

// Extract sends the file to the recognition service and decodes the item
// list. The caller's context governs cancellation and deadline.
func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) ([]port.ExtractedItem, *port.ExtractUsage, error) {
	if input.Profile == nil {
		return nil, nil, fmt.Errorf("extractor: profile is required")
	}

	reqBody := extractRequest{
		Document:          base64.StdEncoding.EncodeToString(input.FileBytes),
		ContentType:       input.ContentType,
		ProfileKey:        input.Profile.Key,
		ProfileVersion:    input.Profile.Version,
		ExpectedItemTypes: input.Profile.ExpectedItemTypes,
		FlagDefinitions:   input.Profile.FlagDefinitions,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading extraction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, excerpt(respBytes))
	}

	var decoded extractResponse
	if err := json.Unmarshal(respBytes, &decoded); err != nil {
		return nil, nil, fmt.Errorf("decoding extraction response: %w", err)
	}

	items := make([]port.ExtractedItem, 0, len(decoded.Items))
	for _, it := range decoded.Items {
		flags := domain.FlagMap(it.Flags)
		if flags == nil {
			flags = domain.FlagMap{}
		}
		items = append(items, port.ExtractedItem{
			ItemType:                it.ItemType,
			RawText:                 it.RawText,
			OCRConfidence:           it.OCRConfidence,
			OCRProvider:             it.OCRProvider,
			NormalizedText:          it.NormalizedText,
			NormalizationConfidence: it.NormalizationConfidence,
			Flags:                   flags,
			StructuredData:          it.StructuredData,
		})
	}

	usage := &port.ExtractUsage{
		Provider:     e.provider,
		ModelVersion: decoded.Usage.ModelVersion,
		PagesCounted: decoded.Usage.Pages,
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
		CostCents:    decoded.Usage.CostCents,
	}

	return items, usage, nil
}

func excerpt(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

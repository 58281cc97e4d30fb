package port

import (
	"context"
	"encoding/json"

	"docflow/internal/domain"
)

// ExtractInput carries the data needed for one extraction call.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	Profile     *domain.DocumentProfile
}

// ExtractedItem is one raw extraction result, ordered by position in the
// returned slice.
type ExtractedItem struct {
	ItemType                string
	RawText                 string
	OCRConfidence           float64
	OCRProvider             string
	NormalizedText          *string
	NormalizationConfidence *float64
	Flags                   domain.FlagMap
	StructuredData          json.RawMessage
}

// ExtractUsage summarizes the resource footprint of one extraction call.
type ExtractUsage struct {
	Provider     string
	ModelVersion string
	PagesCounted int
	InputTokens  int64
	OutputTokens int64
	CostCents    int64
}

// DocumentExtractor abstracts the external recognition provider: given raw
// bytes and a resolved profile, return an ordered list of extracted items.
type DocumentExtractor interface {
	Extract(ctx context.Context, input ExtractInput) ([]ExtractedItem, *ExtractUsage, error)
}

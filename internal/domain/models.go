package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentProfile describes the expected shape of one document type: which
// item types extraction should yield, which flags are enabled, and the
// confidence thresholds and normalizers that apply per field. Profiles are
// versioned and immutable once referenced by a job; superseded profiles are
// deactivated, never deleted. A NULL tenant_id makes a profile global;
// tenant-scoped profiles shadow global ones with the same id.
type DocumentProfile struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	TenantID             *uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Key                  string          `db:"key" json:"key"`
	Version              int             `db:"version" json:"version"`
	ExpectedItemTypes    json.RawMessage `db:"expected_item_types" json:"expected_item_types"`
	FlagDefinitions      json.RawMessage `db:"flag_definitions" json:"flag_definitions"`
	ConfidenceThresholds json.RawMessage `db:"confidence_thresholds" json:"confidence_thresholds"`
	FieldNormalizers     json.RawMessage `db:"field_normalizers" json:"field_normalizers"`
	ValidationSchema     json.RawMessage `db:"validation_schema" json:"validation_schema"`
	IsActive             bool            `db:"is_active" json:"is_active"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// DocumentJob is one ingestion attempt for one uploaded file. Jobs are never
// resurrected: a retry of the same logical upload creates a new row. Rows are
// soft-marked via deleted_at at retention expiry, never removed.
type DocumentJob struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	TenantID       uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	IntegrationID  string     `db:"integration_id" json:"integration_id"`
	FacilityID     string     `db:"facility_id" json:"facility_id"`
	ProfileID      uuid.UUID  `db:"profile_id" json:"profile_id"`
	FileName       string     `db:"file_name" json:"file_name"`
	ContentType    string     `db:"content_type" json:"content_type"`
	FileSize       int64      `db:"file_size" json:"file_size"`
	PageCount      int        `db:"page_count" json:"page_count"`
	StorageBucket  string     `db:"storage_bucket" json:"storage_bucket"`
	StorageKey     string     `db:"storage_key" json:"storage_key"`
	RetentionUntil *time.Time `db:"retention_until" json:"retention_until"`
	Status         JobStatus  `db:"status" json:"status"`
	ErrorMessage   string     `db:"error_message" json:"error_message"`
	CorrelationID  string     `db:"correlation_id" json:"correlation_id"`
	ExternalRef    *string    `db:"external_ref" json:"external_ref"`
	ProcessedAt    *time.Time `db:"processed_at" json:"processed_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at"`
}

// DocumentItem is one extracted unit (line, field, or region) belonging to
// exactly one job, ordered by ItemIndex within that job. The orchestrator
// only ever replaces a job's items as a complete set, so the persisted set
// always reflects exactly one extraction attempt.
type DocumentItem struct {
	ID                      uuid.UUID       `db:"id" json:"id"`
	JobID                   uuid.UUID       `db:"job_id" json:"job_id"`
	TenantID                uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	ItemIndex               int             `db:"item_index" json:"item_index"`
	ItemType                string          `db:"item_type" json:"item_type"`
	RawText                 string          `db:"raw_text" json:"raw_text"`
	OCRConfidence           float64         `db:"ocr_confidence" json:"ocr_confidence"`
	OCRProvider             string          `db:"ocr_provider" json:"ocr_provider"`
	NormalizedText          *string         `db:"normalized_text" json:"normalized_text"`
	NormalizationConfidence *float64        `db:"normalization_confidence" json:"normalization_confidence"`
	Flags                   FlagMap         `db:"flags" json:"flags"`
	StructuredData          json.RawMessage `db:"structured_data" json:"structured_data"`
	IsReviewed              bool            `db:"is_reviewed" json:"is_reviewed"`
	ReviewedBy              *uuid.UUID      `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt              *time.Time      `db:"reviewed_at" json:"reviewed_at"`
	CorrectedText           *string         `db:"corrected_text" json:"corrected_text"`
	ReviewNotes             string          `db:"review_notes" json:"review_notes"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt               *time.Time      `db:"deleted_at" json:"deleted_at"`
}

// HumanReview records one reviewer disposition of one item. Rows accumulate
// over time (re-review); only the explicit mark-reviewed step updates the
// item itself.
type HumanReview struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	ItemID             uuid.UUID       `db:"item_id" json:"item_id"`
	TenantID           uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	Status             ReviewStatus    `db:"status" json:"status"`
	CorrectedText      *string         `db:"corrected_text" json:"corrected_text"`
	CorrectedData      json.RawMessage `db:"corrected_data" json:"corrected_data"`
	Notes              string          `db:"notes" json:"notes"`
	ReviewerConfidence *float64        `db:"reviewer_confidence" json:"reviewer_confidence"`
	ReviewedBy         uuid.UUID       `db:"reviewed_by" json:"reviewed_by"`
	CompletedAt        time.Time       `db:"completed_at" json:"completed_at"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// UsageRecord is one append-only ledger row per ingestion attempt. Rows are
// never mutated after insertion so the ledger can serve as a billing source
// of truth independent of job retries.
type UsageRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       uuid.UUID `db:"tenant_id" json:"tenant_id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	Provider       string    `db:"provider" json:"provider"`
	ModelVersion   string    `db:"model_version" json:"model_version"`
	PagesProcessed int       `db:"pages_processed" json:"pages_processed"`
	FileSizeBytes  int64     `db:"file_size_bytes" json:"file_size_bytes"`
	InputTokens    int64     `db:"input_tokens" json:"input_tokens"`
	OutputTokens   int64     `db:"output_tokens" json:"output_tokens"`
	ProcessingMS   int64     `db:"processing_ms" json:"processing_ms"`
	CostCents      int64     `db:"cost_cents" json:"cost_cents"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"docflow/internal/domain"
	"docflow/internal/port"
)

// IngestInput is the DTO for registering one uploaded file for ingestion.
type IngestInput struct {
	TenantID       uuid.UUID
	IntegrationID  string
	FacilityID     string
	ProfileID      uuid.UUID
	FileName       string
	ContentType    string
	FileSize       int64
	PageCount      int
	StorageBucket  string
	StorageKey     string
	RetentionUntil *time.Time
	CorrelationID  string
	ExternalRef    *string
}

// IngestService orchestrates the job lifecycle: pending -> processing ->
// {completed, failed}. Lower-level errors are converted into job-state
// transitions here and nowhere else, so callers learn outcomes by reading
// the job row rather than catching errors.
type IngestService interface {
	CreateJob(ctx context.Context, input *IngestInput) (*domain.DocumentJob, error)
	UploadDocument(ctx context.Context, input *IngestInput, fileBytes []byte) (*domain.DocumentJob, error)
	ProcessJob(ctx context.Context, job *domain.DocumentJob) error
	ReingestJob(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error)
	GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error)
	ListItems(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.DocumentItem, error)
}

type ingestService struct {
	jobRepo     port.JobRepository
	itemRepo    port.ItemRepository
	usageRepo   port.UsageRepository
	profileRepo port.ProfileRepository
	storage     port.ObjectStorage
	extractor   port.DocumentExtractor

	// jobLocks serializes attempts per job id so two concurrent retries can
	// never interleave the delete/insert replacement of a job's items.
	// Entries are refcounted and removed once the last holder releases.
	mu       sync.Mutex
	jobLocks map[uuid.UUID]*jobLock
}

type jobLock struct {
	mu   sync.Mutex
	refs int
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	jobRepo port.JobRepository,
	itemRepo port.ItemRepository,
	usageRepo port.UsageRepository,
	profileRepo port.ProfileRepository,
	storage port.ObjectStorage,
	extractor port.DocumentExtractor,
) IngestService {
	return &ingestService{
		jobRepo:     jobRepo,
		itemRepo:    itemRepo,
		usageRepo:   usageRepo,
		profileRepo: profileRepo,
		storage:     storage,
		extractor:   extractor,
		jobLocks:    make(map[uuid.UUID]*jobLock),
	}
}

func (s *ingestService) lockJob(jobID uuid.UUID) *jobLock {
	s.mu.Lock()
	l, ok := s.jobLocks[jobID]
	if !ok {
		l = &jobLock{}
		s.jobLocks[jobID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return l
}

func (s *ingestService) unlockJob(jobID uuid.UUID, l *jobLock) {
	l.mu.Unlock()

	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.jobLocks, jobID)
	}
	s.mu.Unlock()
}

func jobFromInput(id uuid.UUID, input *IngestInput) *domain.DocumentJob {
	return &domain.DocumentJob{
		ID:             id,
		TenantID:       input.TenantID,
		IntegrationID:  input.IntegrationID,
		FacilityID:     input.FacilityID,
		ProfileID:      input.ProfileID,
		FileName:       input.FileName,
		ContentType:    input.ContentType,
		FileSize:       input.FileSize,
		PageCount:      input.PageCount,
		StorageBucket:  input.StorageBucket,
		StorageKey:     input.StorageKey,
		RetentionUntil: input.RetentionUntil,
		Status:         domain.JobStatusPending,
		CorrelationID:  input.CorrelationID,
		ExternalRef:    input.ExternalRef,
	}
}

func (s *ingestService) CreateJob(ctx context.Context, input *IngestInput) (*domain.DocumentJob, error) {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, fmt.Errorf("unsupported content type %q", input.ContentType)
	}

	job := jobFromInput(uuid.New(), input)

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Printf("ingestService.CreateJob: created job %s for file %q (tenant %s)",
		job.ID, job.FileName, job.TenantID)

	return job, nil
}

// UploadDocument stores the raw file bytes and registers the ingestion job
// for them in one step. The storage key embeds the job id, so a retried
// upload produces a fresh key and never overwrites another job's file.
func (s *ingestService) UploadDocument(ctx context.Context, input *IngestInput, fileBytes []byte) (*domain.DocumentJob, error) {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, fmt.Errorf("unsupported content type %q", input.ContentType)
	}
	if input.StorageBucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	jobID := uuid.New()
	key := fmt.Sprintf("tenants/%s/jobs/%s/%s", input.TenantID, jobID, input.FileName)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      input.StorageBucket,
		Key:         key,
		Body:        bytes.NewReader(fileBytes),
		ContentType: input.ContentType,
		Size:        int64(len(fileBytes)),
	}); err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	input.StorageKey = key
	input.FileSize = int64(len(fileBytes))
	job := jobFromInput(jobID, input)

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Printf("ingestService.UploadDocument: stored %q as %s and created job %s",
		job.FileName, key, job.ID)

	return job, nil
}

// ProcessJob runs one ingestion attempt for a job already claimed into
// processing status. Extraction and persistence errors become a failed job
// with the message retained verbatim; only cancellation from the caller's
// context propagates out as an error, with the row left untouched. The
// caller owns the context, so the caller decides what a cancelled attempt
// means (the queue worker fails jobs whose time box expired).
func (s *ingestService) ProcessJob(ctx context.Context, job *domain.DocumentJob) error {
	l := s.lockJob(job.ID)
	defer s.unlockJob(job.ID, l)

	if job.Status.Terminal() {
		return domain.ErrJobTerminal
	}

	// The queue worker claims jobs straight into processing; a direct call
	// still owes the pending -> processing transition. Failing to record it
	// is a hard failure to run at all, so no usage row is appended.
	if job.Status == domain.JobStatusPending {
		if err := s.jobRepo.UpdateStatus(ctx, job.TenantID, job.ID, domain.JobStatusProcessing, "", nil); err != nil {
			return fmt.Errorf("transitioning job %s to processing: %w", job.ID, err)
		}
		job.Status = domain.JobStatusProcessing
	}

	start := time.Now()
	log.Printf("ingestService.ProcessJob: starting attempt for job %s", job.ID)

	profile, err := s.profileRepo.GetByID(ctx, job.TenantID, job.ProfileID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.failJob(ctx, job, fmt.Sprintf("resolving profile %s: %v", job.ProfileID, err))
		s.recordUsage(ctx, job, nil, time.Since(start))
		return nil
	}

	fileBytes, err := s.storage.Download(ctx, job.StorageBucket, job.StorageKey)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.failJob(ctx, job, fmt.Sprintf("downloading file: %v", err))
		s.recordUsage(ctx, job, nil, time.Since(start))
		return nil
	}

	extracted, usage, err := s.extractor.Extract(ctx, port.ExtractInput{
		FileBytes:   fileBytes,
		ContentType: job.ContentType,
		Profile:     profile,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.failJob(ctx, job, fmt.Sprintf("extracting items: %v", err))
		s.recordUsage(ctx, job, usage, time.Since(start))
		return nil
	}

	items := buildItems(job, extracted)

	// Replace any prior attempt's items as one complete set. The delete
	// makes a retry after a crash mid-write safe: the persisted set always
	// reflects exactly one extraction attempt.
	if err := s.itemRepo.DeleteByJob(ctx, job.TenantID, job.ID); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.failJob(ctx, job, fmt.Sprintf("clearing prior items: %v", err))
		s.recordUsage(ctx, job, usage, time.Since(start))
		return nil
	}
	if err := s.itemRepo.CreateBatch(ctx, items); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.failJob(ctx, job, fmt.Sprintf("persisting %d items: %v", len(items), err))
		s.recordUsage(ctx, job, usage, time.Since(start))
		return nil
	}

	now := time.Now().UTC()
	if err := s.jobRepo.UpdateStatus(ctx, job.TenantID, job.ID, domain.JobStatusCompleted, "", &now); err != nil {
		log.Printf("ingestService.ProcessJob: failed to complete job %s: %v", job.ID, err)
		return err
	}
	job.Status = domain.JobStatusCompleted
	job.ErrorMessage = ""
	job.ProcessedAt = &now

	s.recordUsage(ctx, job, usage, time.Since(start))

	log.Printf("ingestService.ProcessJob: job %s completed with %d items", job.ID, len(items))
	return nil
}

// ReingestJob creates a fresh job row for the same logical upload. Terminal
// jobs are never resurrected; the old row stays as the audit trail of its
// own attempt.
func (s *ingestService) ReingestJob(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error) {
	prev, err := s.jobRepo.GetByID(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	job := &domain.DocumentJob{
		ID:             uuid.New(),
		TenantID:       prev.TenantID,
		IntegrationID:  prev.IntegrationID,
		FacilityID:     prev.FacilityID,
		ProfileID:      prev.ProfileID,
		FileName:       prev.FileName,
		ContentType:    prev.ContentType,
		FileSize:       prev.FileSize,
		PageCount:      prev.PageCount,
		StorageBucket:  prev.StorageBucket,
		StorageKey:     prev.StorageKey,
		RetentionUntil: prev.RetentionUntil,
		Status:         domain.JobStatusPending,
		CorrelationID:  prev.CorrelationID,
		ExternalRef:    prev.ExternalRef,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating reingest job: %w", err)
	}

	log.Printf("ingestService.ReingestJob: created job %s replacing attempt %s", job.ID, prev.ID)
	return job, nil
}

func (s *ingestService) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error) {
	return s.jobRepo.GetByID(ctx, tenantID, jobID)
}

func (s *ingestService) ListItems(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.DocumentItem, error) {
	return s.itemRepo.ListByJob(ctx, tenantID, jobID)
}

// failJob converts a lower-level error into a failed job with the message
// preserved verbatim for operator diagnosis.
func (s *ingestService) failJob(ctx context.Context, job *domain.DocumentJob, errMsg string) {
	log.Printf("ingestService.failJob: job %s failed: %s", job.ID, errMsg)
	if err := s.jobRepo.UpdateStatus(ctx, job.TenantID, job.ID, domain.JobStatusFailed, errMsg, nil); err != nil {
		log.Printf("ingestService.failJob: failed to update status for %s: %v", job.ID, err)
		return
	}
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = errMsg
	job.ProcessedAt = nil
}

// recordUsage appends one ledger row for the attempt, success or failure.
// Ledger write failures are logged, not propagated: the attempt outcome is
// already decided by the job row.
func (s *ingestService) recordUsage(ctx context.Context, job *domain.DocumentJob, usage *port.ExtractUsage, elapsed time.Duration) {
	record := &domain.UsageRecord{
		ID:             uuid.New(),
		TenantID:       job.TenantID,
		JobID:          job.ID,
		PagesProcessed: job.PageCount,
		FileSizeBytes:  job.FileSize,
		ProcessingMS:   elapsed.Milliseconds(),
	}
	if usage != nil {
		record.Provider = usage.Provider
		record.ModelVersion = usage.ModelVersion
		if usage.PagesCounted > 0 {
			record.PagesProcessed = usage.PagesCounted
		}
		record.InputTokens = usage.InputTokens
		record.OutputTokens = usage.OutputTokens
		record.CostCents = usage.CostCents
	}

	if err := s.usageRepo.Create(ctx, record); err != nil {
		log.Printf("ingestService.recordUsage: failed to append usage for job %s: %v", job.ID, err)
	}
}

// buildItems converts raw extraction results into document items, indexed in
// extraction order. structured_data defaults to an empty object, never null.
func buildItems(job *domain.DocumentJob, extracted []port.ExtractedItem) []domain.DocumentItem {
	items := make([]domain.DocumentItem, 0, len(extracted))
	for i, raw := range extracted {
		structured := raw.StructuredData
		if len(structured) == 0 {
			structured = json.RawMessage("{}")
		}
		flags := raw.Flags
		if flags == nil {
			flags = domain.FlagMap{}
		}
		items = append(items, domain.DocumentItem{
			ID:                      uuid.New(),
			JobID:                   job.ID,
			TenantID:                job.TenantID,
			ItemIndex:               i,
			ItemType:                raw.ItemType,
			RawText:                 raw.RawText,
			OCRConfidence:           raw.OCRConfidence,
			OCRProvider:             raw.OCRProvider,
			NormalizedText:          raw.NormalizedText,
			NormalizationConfidence: raw.NormalizationConfidence,
			Flags:                   flags,
			StructuredData:          structured,
		})
	}
	return items
}

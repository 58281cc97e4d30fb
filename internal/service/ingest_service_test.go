package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/internal/port"
	"docflow/internal/service"
	"docflow/mocks"
)

func setupIngestService() (
	service.IngestService,
	*mocks.MockJobRepo,
	*mocks.MockItemRepo,
	*mocks.MockUsageRepo,
	*mocks.MockProfileRepo,
	*mocks.MockObjectStorage,
	*mocks.MockExtractor,
) {
	jobRepo := new(mocks.MockJobRepo)
	itemRepo := new(mocks.MockItemRepo)
	usageRepo := new(mocks.MockUsageRepo)
	profileRepo := new(mocks.MockProfileRepo)
	storage := new(mocks.MockObjectStorage)
	extractor := new(mocks.MockExtractor)
	svc := service.NewIngestService(jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor)
	return svc, jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor
}

func processingJob(tenantID uuid.UUID) *domain.DocumentJob {
	return &domain.DocumentJob{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ProfileID:     uuid.New(),
		FileName:      "invoice.pdf",
		ContentType:   "application/pdf",
		FileSize:      2048,
		PageCount:     2,
		StorageBucket: "test-bucket",
		StorageKey:    "tenants/t1/files/invoice.pdf",
		Status:        domain.JobStatusProcessing,
	}
}

func extractedItems(confidences ...float64) []port.ExtractedItem {
	items := make([]port.ExtractedItem, 0, len(confidences))
	for _, c := range confidences {
		items = append(items, port.ExtractedItem{
			ItemType:      "line",
			RawText:       "some text",
			OCRConfidence: c,
			OCRProvider:   "test-ocr",
		})
	}
	return items
}

// --- CreateJob ---

func TestIngestService_CreateJob_Success(t *testing.T) {
	svc, jobRepo, _, _, _, _, _ := setupIngestService()

	tenantID := uuid.New()
	jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentJob")).Return(nil)

	job, err := svc.CreateJob(context.Background(), &service.IngestInput{
		TenantID:      tenantID,
		ProfileID:     uuid.New(),
		FileName:      "invoice.pdf",
		ContentType:   "application/pdf",
		FileSize:      2048,
		StorageBucket: "test-bucket",
		StorageKey:    "tenants/t1/files/invoice.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Nil(t, job.ProcessedAt)
	jobRepo.AssertExpectations(t)
}

func TestIngestService_CreateJob_UnsupportedContentType(t *testing.T) {
	svc, jobRepo, _, _, _, _, _ := setupIngestService()

	job, err := svc.CreateJob(context.Background(), &service.IngestInput{
		TenantID:    uuid.New(),
		ProfileID:   uuid.New(),
		FileName:    "virus.exe",
		ContentType: "application/octet-stream",
	})

	assert.Nil(t, job)
	assert.Error(t, err)
	jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- UploadDocument ---

func TestIngestService_UploadDocument(t *testing.T) {
	svc, jobRepo, _, _, _, storage, _ := setupIngestService()

	tenantID := uuid.New()
	fileBytes := []byte("%PDF-1.4 test content")

	var uploaded port.UploadInput
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Run(func(args mock.Arguments) { uploaded = args.Get(1).(port.UploadInput) }).
		Return(&port.UploadOutput{Location: "https://test-bucket.example/x"}, nil)
	jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentJob")).Return(nil)

	job, err := svc.UploadDocument(context.Background(), &service.IngestInput{
		TenantID:      tenantID,
		ProfileID:     uuid.New(),
		FileName:      "invoice.pdf",
		ContentType:   "application/pdf",
		StorageBucket: "test-bucket",
	}, fileBytes)

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	// The job row records exactly the handle the file was stored under.
	wantKey := fmt.Sprintf("tenants/%s/jobs/%s/invoice.pdf", tenantID, job.ID)
	assert.Equal(t, "test-bucket", uploaded.Bucket)
	assert.Equal(t, wantKey, uploaded.Key)
	assert.Equal(t, wantKey, job.StorageKey)
	assert.Equal(t, int64(len(fileBytes)), uploaded.Size)
	assert.Equal(t, int64(len(fileBytes)), job.FileSize)

	jobRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestIngestService_UploadDocument_MissingBucket(t *testing.T) {
	svc, jobRepo, _, _, _, storage, _ := setupIngestService()

	job, err := svc.UploadDocument(context.Background(), &service.IngestInput{
		TenantID:    uuid.New(),
		ProfileID:   uuid.New(),
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
	}, []byte("bytes"))

	assert.Nil(t, job)
	assert.Error(t, err)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestService_UploadDocument_UploadError(t *testing.T) {
	svc, jobRepo, _, _, _, storage, _ := setupIngestService()

	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, errors.New("access denied"))

	job, err := svc.UploadDocument(context.Background(), &service.IngestInput{
		TenantID:      uuid.New(),
		ProfileID:     uuid.New(),
		FileName:      "invoice.pdf",
		ContentType:   "application/pdf",
		StorageBucket: "test-bucket",
	}, []byte("bytes"))

	assert.Nil(t, job)
	assert.Error(t, err)
	jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- ProcessJob ---

func TestIngestService_ProcessJob_Success(t *testing.T) {
	svc, jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)
	profile := &domain.DocumentProfile{ID: job.ProfileID, Key: "invoice-v2", Version: 2, IsActive: true}

	var calls []string
	var inserted []domain.DocumentItem

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).Return(profile, nil)
	storage.On("Download", mock.Anything, "test-bucket", "tenants/t1/files/invoice.pdf").
		Return([]byte("%PDF-1.4 test content"), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(extractedItems(0.40, 0.70, 0.95), &port.ExtractUsage{
			Provider:     "test-ocr",
			ModelVersion: "v9",
			PagesCounted: 2,
			InputTokens:  100,
			OutputTokens: 50,
			CostCents:    3,
		}, nil)
	itemRepo.On("DeleteByJob", mock.Anything, tenantID, job.ID).
		Run(func(mock.Arguments) { calls = append(calls, "delete") }).Return(nil)
	itemRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.DocumentItem")).
		Run(func(args mock.Arguments) {
			calls = append(calls, "insert")
			inserted = args.Get(1).([]domain.DocumentItem)
		}).Return(nil)
	jobRepo.On("UpdateStatus", mock.Anything, tenantID, job.ID, domain.JobStatusCompleted, "",
		mock.AnythingOfType("*time.Time")).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.UsageRecord")).Return(nil)

	err := svc.ProcessJob(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	// Prior items are always cleared before the new set is written.
	assert.Equal(t, []string{"delete", "insert"}, calls)

	require.Len(t, inserted, 3)
	for i, item := range inserted {
		assert.Equal(t, i, item.ItemIndex)
		assert.Equal(t, job.ID, item.JobID)
		assert.Equal(t, tenantID, item.TenantID)
		assert.JSONEq(t, "{}", string(item.StructuredData))
		assert.NotNil(t, item.Flags)
	}

	jobRepo.AssertExpectations(t)
	usageRepo.AssertExpectations(t)
}

func TestIngestService_ProcessJob_ProfileNotFound(t *testing.T) {
	svc, jobRepo, itemRepo, usageRepo, profileRepo, _, _ := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).
		Return(nil, domain.ErrProfileNotFound)
	jobRepo.On("UpdateStatus", mock.Anything, tenantID, job.ID, domain.JobStatusFailed,
		mock.AnythingOfType("string"), (*time.Time)(nil)).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.UsageRecord")).Return(nil)

	err := svc.ProcessJob(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "resolving profile")
	assert.Contains(t, job.ErrorMessage, "profile not found")
	assert.Nil(t, job.ProcessedAt)

	itemRepo.AssertNotCalled(t, "DeleteByJob", mock.Anything, mock.Anything, mock.Anything)
	// The attempt ran, so usage is still recorded.
	usageRepo.AssertExpectations(t)
}

func TestIngestService_ProcessJob_ExtractorError(t *testing.T) {
	svc, jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)
	profile := &domain.DocumentProfile{ID: job.ProfileID, Key: "invoice-v2", IsActive: true}

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).Return(profile, nil)
	storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte("bytes"), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("provider returned 503: overloaded"))
	jobRepo.On("UpdateStatus", mock.Anything, tenantID, job.ID, domain.JobStatusFailed,
		mock.AnythingOfType("string"), (*time.Time)(nil)).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.UsageRecord")).Return(nil)

	err := svc.ProcessJob(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	// The provider's message is preserved verbatim for operator diagnosis.
	assert.Contains(t, job.ErrorMessage, "provider returned 503: overloaded")

	itemRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	usageRepo.AssertExpectations(t)
}

func TestIngestService_ProcessJob_TerminalJobRejected(t *testing.T) {
	svc, _, _, _, _, _, _ := setupIngestService()

	job := processingJob(uuid.New())
	job.Status = domain.JobStatusCompleted

	err := svc.ProcessJob(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrJobTerminal)
}

func TestIngestService_ProcessJob_CancellationPropagates(t *testing.T) {
	svc, jobRepo, _, usageRepo, profileRepo, storage, _ := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)
	profile := &domain.DocumentProfile{ID: job.ProfileID, Key: "invoice-v2", IsActive: true}

	ctx, cancel := context.WithCancel(context.Background())

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).Return(profile, nil)
	storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	err := svc.ProcessJob(ctx, job)

	assert.ErrorIs(t, err, context.Canceled)
	// Cancellation is not converted into a failed job.
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	jobRepo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, domain.JobStatusFailed, mock.Anything, mock.Anything)
	usageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Re-running an attempt must leave exactly the second run's items, never a
// union of both runs.
func TestIngestService_ProcessJob_IdempotentRetry(t *testing.T) {
	svc, jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)
	profile := &domain.DocumentProfile{ID: job.ProfileID, Key: "invoice-v2", IsActive: true}

	deletes := 0
	var lastInserted []domain.DocumentItem

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).Return(profile, nil)
	storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte("bytes"), nil)

	// First run yields 5 items, the retry only 3.
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(extractedItems(0.9, 0.9, 0.9, 0.9, 0.9), (*port.ExtractUsage)(nil), nil).Once()
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(extractedItems(0.9, 0.9, 0.9), (*port.ExtractUsage)(nil), nil).Once()

	itemRepo.On("DeleteByJob", mock.Anything, tenantID, job.ID).
		Run(func(mock.Arguments) { deletes++ }).Return(nil)
	itemRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.DocumentItem")).
		Run(func(args mock.Arguments) {
			lastInserted = args.Get(1).([]domain.DocumentItem)
		}).Return(nil)
	jobRepo.On("UpdateStatus", mock.Anything, tenantID, job.ID, domain.JobStatusCompleted, "",
		mock.AnythingOfType("*time.Time")).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.UsageRecord")).Return(nil)

	require.NoError(t, svc.ProcessJob(context.Background(), job))

	// Simulate the retry of the same job id.
	job.Status = domain.JobStatusProcessing
	job.ProcessedAt = nil
	require.NoError(t, svc.ProcessJob(context.Background(), job))

	assert.Equal(t, 2, deletes)
	require.Len(t, lastInserted, 3)
	for i, item := range lastInserted {
		assert.Equal(t, i, item.ItemIndex)
	}
}

// --- ReingestJob ---

func TestIngestService_ReingestJob_CreatesFreshRow(t *testing.T) {
	svc, jobRepo, _, _, _, _, _ := setupIngestService()

	tenantID := uuid.New()
	prev := processingJob(tenantID)
	prev.Status = domain.JobStatusFailed
	prev.ErrorMessage = "extracting items: provider timeout"

	jobRepo.On("GetByID", mock.Anything, tenantID, prev.ID).Return(prev, nil)
	jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentJob")).Return(nil)

	job, err := svc.ReingestJob(context.Background(), tenantID, prev.ID)

	require.NoError(t, err)
	assert.NotEqual(t, prev.ID, job.ID)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, prev.StorageKey, job.StorageKey)
	assert.Equal(t, prev.ProfileID, job.ProfileID)
	jobRepo.AssertExpectations(t)
}

func TestIngestService_ReingestJob_NotFound(t *testing.T) {
	svc, jobRepo, _, _, _, _, _ := setupIngestService()

	tenantID := uuid.New()
	jobID := uuid.New()
	jobRepo.On("GetByID", mock.Anything, tenantID, jobID).Return(nil, domain.ErrJobNotFound)

	job, err := svc.ReingestJob(context.Background(), tenantID, jobID)

	assert.Nil(t, job)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

// structured_data defaults to an empty object even when the provider sends
// explicit payloads for some items only.
func TestIngestService_ProcessJob_StructuredDataDefaults(t *testing.T) {
	svc, jobRepo, itemRepo, usageRepo, profileRepo, storage, extractor := setupIngestService()

	tenantID := uuid.New()
	job := processingJob(tenantID)
	profile := &domain.DocumentProfile{ID: job.ProfileID, Key: "invoice-v2", IsActive: true}

	withPayload := extractedItems(0.9, 0.9)
	withPayload[0].StructuredData = json.RawMessage(`{"amount":"12.50"}`)

	var inserted []domain.DocumentItem

	profileRepo.On("GetByID", mock.Anything, tenantID, job.ProfileID).Return(profile, nil)
	storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("bytes"), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(withPayload, (*port.ExtractUsage)(nil), nil)
	itemRepo.On("DeleteByJob", mock.Anything, tenantID, job.ID).Return(nil)
	itemRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.DocumentItem")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]domain.DocumentItem)
		}).Return(nil)
	jobRepo.On("UpdateStatus", mock.Anything, tenantID, job.ID, domain.JobStatusCompleted, "",
		mock.AnythingOfType("*time.Time")).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.UsageRecord")).Return(nil)

	require.NoError(t, svc.ProcessJob(context.Background(), job))

	require.Len(t, inserted, 2)
	assert.JSONEq(t, `{"amount":"12.50"}`, string(inserted[0].StructuredData))
	assert.JSONEq(t, "{}", string(inserted[1].StructuredData))
}

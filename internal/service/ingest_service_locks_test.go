package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/mocks"
)

// Every attempt must release and forget its per-job lock entry; a daemon
// processing millions of jobs cannot keep a mutex per job forever.
func TestProcessJob_ReleasesJobLockEntry(t *testing.T) {
	jobRepo := new(mocks.MockJobRepo)
	usageRepo := new(mocks.MockUsageRepo)
	profileRepo := new(mocks.MockProfileRepo)

	svc := NewIngestService(jobRepo, nil, usageRepo, profileRepo, nil, nil).(*ingestService)

	// Terminal rejection still takes and releases the lock.
	terminal := &domain.DocumentJob{ID: uuid.New(), Status: domain.JobStatusCompleted}
	require.ErrorIs(t, svc.ProcessJob(context.Background(), terminal), domain.ErrJobTerminal)

	svc.mu.Lock()
	assert.Empty(t, svc.jobLocks)
	svc.mu.Unlock()

	// A full failed attempt releases too.
	job := &domain.DocumentJob{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   domain.JobStatusProcessing,
	}
	profileRepo.On("GetByID", mock.Anything, job.TenantID, job.ProfileID).
		Return(nil, domain.ErrProfileNotFound)
	jobRepo.On("UpdateStatus", mock.Anything, job.TenantID, job.ID, domain.JobStatusFailed,
		mock.AnythingOfType("string"), mock.Anything).Return(nil)
	usageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.ProcessJob(context.Background(), job))

	svc.mu.Lock()
	assert.Empty(t, svc.jobLocks)
	svc.mu.Unlock()
}

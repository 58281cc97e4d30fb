package domain

// JobStatus represents the lifecycle of a document ingestion job.
// The set is closed: any other value is a contract violation and must be
// rejected before it reaches the store.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Valid reports whether s is one of the closed set of job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status. No transition is legal
// out of a terminal status; a new attempt for the same upload is a new job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReviewStatus represents a reviewer's disposition of a single item.
type ReviewStatus string

const (
	ReviewStatusApproved  ReviewStatus = "approved"
	ReviewStatusCorrected ReviewStatus = "corrected"
	ReviewStatusRejected  ReviewStatus = "rejected"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusApproved, ReviewStatusCorrected, ReviewStatusRejected:
		return true
	}
	return false
}

// AllowedContentTypes maps the MIME content types accepted for ingestion
// to their canonical extension.
var AllowedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/tiff":      "tiff",
}

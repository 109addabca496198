package jobqueue

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobTypePhotoProcessing JobType = "photo_processing"
	JobTypeStorageDelete   JobType = "storage_delete"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job is one unit of background work as stored in Redis. The payload stays
// raw JSON until the handler for Type decodes it.
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ErrorMsg    string          `json:"error_msg,omitempty"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
}

// Decode unmarshals the payload into dest.
func (j *Job) Decode(dest any) error {
	if len(j.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), dest)
	}
	return json.Unmarshal(j.Payload, dest)
}

// PhotoProcessingJobPayload renders the thumbnail and reads EXIF data of
// an uploaded photo.
type PhotoProcessingJobPayload struct {
	PhotoID   uint   `json:"photo_id"`
	PhotoUUID string `json:"photo_uuid"`
	EventID   uint   `json:"event_id"`
	ObjectKey string `json:"object_key"`
}

// StorageDeleteJobPayload removes the stored objects of a deleted photo.
type StorageDeleteJobPayload struct {
	PhotoUUID    string `json:"photo_uuid"`
	ObjectKey    string `json:"object_key"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
}

func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed records the error and counts the attempt.
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}

package jobqueue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTypes(t *testing.T) {
	assert.Equal(t, "photo_processing", string(JobTypePhotoProcessing))
	assert.Equal(t, "storage_delete", string(JobTypeStorageDelete))
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{"Failed job with retries remaining", &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}, true},
		{"Failed job with no retries remaining", &Job{Status: JobStatusFailed, RetryCount: 3, MaxRetries: 3}, false},
		{"Completed job", &Job{Status: JobStatusCompleted, RetryCount: 1, MaxRetries: 3}, false},
		{"Pending job", &Job{Status: JobStatusPending, MaxRetries: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_StatusTransitions(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 3}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}

func TestJob_DecodeAfterRoundTrip(t *testing.T) {
	orig := PhotoProcessingJobPayload{PhotoID: 42, PhotoUUID: "u", EventID: 7, ObjectKey: "events/7/1-a.jpg"}
	raw, err := json.Marshal(Job{ID: "j", Payload: payloadJSON(t, orig)})
	require.NoError(t, err)

	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	var got PhotoProcessingJobPayload
	require.NoError(t, job.Decode(&got))
	assert.Equal(t, orig, got)

	assert.NotContains(t, string(payloadJSON(t, StorageDeleteJobPayload{ObjectKey: "k"})), "thumbnail_key")
}

func TestJob_DecodeEmptyPayload(t *testing.T) {
	var got StorageDeleteJobPayload
	require.NoError(t, (&Job{}).Decode(&got))
	assert.Empty(t, got.ObjectKey)
}

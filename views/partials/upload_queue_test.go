package partials

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelProof/internal/pkg/uploadqueue"
)

func renderString(t *testing.T, d UploadQueueData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, UploadQueue(d).Render(context.Background(), &buf))
	return buf.String()
}

func TestUploadQueue_Empty(t *testing.T) {
	out := renderString(t, UploadQueueData{EventID: 3})
	assert.Contains(t, out, "No uploads yet.")
	assert.NotContains(t, out, "hx-trigger")
}

func TestUploadQueue_PollsWhileRunning(t *testing.T) {
	out := renderString(t, UploadQueueData{
		EventID: 3,
		Items: []uploadqueue.Item{
			{ID: "a", FileName: "IMG_1.jpg", Status: uploadqueue.StatusUploading, Progress: 40},
		},
		Summary: uploadqueue.Summary{Total: 1, Uploading: 1},
	})
	assert.Contains(t, out, `hx-get="/admin/events/3/uploads"`)
	assert.Contains(t, out, `value="40"`)
	assert.NotContains(t, out, "Clear completed")
}

func TestUploadQueue_FinishedShowsErrorsAndClear(t *testing.T) {
	out := renderString(t, UploadQueueData{
		EventID: 3,
		CSRF:    "tok",
		Items: []uploadqueue.Item{
			{ID: "a", FileName: "<b>.jpg", Status: uploadqueue.StatusCompleted, Progress: 100},
			{ID: "b", FileName: "x.jpg", Status: uploadqueue.StatusError, Error: "blocked", CORS: true},
		},
		Summary: uploadqueue.Summary{Total: 2, Completed: 1, Failed: 1},
	})
	assert.NotContains(t, out, "hx-trigger")
	assert.Contains(t, out, "Clear completed")
	assert.Contains(t, out, `value="tok"`)
	assert.Contains(t, out, "&lt;b&gt;.jpg")
	assert.Contains(t, out, `<pre class="error cors">blocked</pre>`)
}

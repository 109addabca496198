// Package partials holds the HTMX fragments of the admin pages.
package partials

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ManuelReschke/PixelProof/internal/pkg/uploadqueue"
)

// UploadQueueData is what the upload queue fragment shows.
type UploadQueueData struct {
	EventID uint
	Items   []uploadqueue.Item
	Summary uploadqueue.Summary
	CSRF    string
}

// Polling is the HTMX refresh interval while uploads are running.
const Polling = "every 1s"

func statusClass(s uploadqueue.Status) string {
	switch s {
	case uploadqueue.StatusCompleted:
		return "upload-done"
	case uploadqueue.StatusError:
		return "upload-error"
	case uploadqueue.StatusUploading:
		return "upload-running"
	}
	return "upload-pending"
}

// running reports whether the fragment still needs to poll.
func running(items []uploadqueue.Item) bool {
	for _, it := range items {
		if !it.Done() {
			return true
		}
	}
	return false
}

func queueURL(eventID uint) string {
	return fmt.Sprintf("/admin/events/%d/uploads", eventID)
}

// pollAttrs makes the section replace itself until every upload is done.
func pollAttrs(d UploadQueueData) templ.Attributes {
	if !running(d.Items) {
		return templ.Attributes{}
	}
	return templ.Attributes{
		"hx-get":     queueURL(d.EventID),
		"hx-trigger": Polling,
		"hx-swap":    "outerHTML",
	}
}

func clearAttrs(d UploadQueueData) templ.Attributes {
	return templ.Attributes{
		"action":    queueURL(d.EventID) + "/clear",
		"hx-post":   queueURL(d.EventID) + "/clear",
		"hx-target": "#upload-queue",
		"hx-swap":   "outerHTML",
	}
}

func itemAttrs(it uploadqueue.Item) templ.Attributes {
	return templ.Attributes{
		"class":          statusClass(it.Status),
		"data-upload-id": it.ID,
	}
}

func errorAttrs(it uploadqueue.Item) templ.Attributes {
	if it.CORS {
		return templ.Attributes{"class": "error cors"}
	}
	return templ.Attributes{"class": "error"}
}

func count(n int) string {
	return strconv.Itoa(n)
}

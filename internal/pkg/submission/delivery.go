package submission

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

func names(photos []gallery.Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.Name
	}
	return out
}

// ClipboardText is one file name per line.
func ClipboardText(photos []gallery.Photo) string {
	return strings.Join(names(photos), "\n")
}

// WhatsAppMessage is the message prefilled into WhatsApp. Without a client
// name it falls back to the short list format.
func WhatsAppMessage(clientName string, photos []gallery.Photo, notes string) string {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return fmt.Sprintf("Hello, here is my photo selection (%d photos):\n\n%s", len(photos), ClipboardText(photos))
	}
	msg := fmt.Sprintf("Hello, this is %s.\n\nI have selected %d photos:\n- %s", clientName, len(photos), strings.Join(names(photos), "\n- "))
	if notes = strings.TrimSpace(notes); notes != "" {
		msg += "\n\nNotes:\n" + notes
	}
	return msg
}

var nonDigits = regexp.MustCompile(`\D`)

// WhatsAppURL builds a wa.me link. number may be empty for a generic share.
func WhatsAppURL(number, text string) string {
	number = nonDigits.ReplaceAllString(number, "")
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(text)
}

// DownloadText is the selection list offered to the photographer.
func DownloadText(eventName, clientName, notes string, submittedAt time.Time, fileNames []string) string {
	if eventName == "" {
		eventName = "Unknown Event"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", eventName)
	fmt.Fprintf(&b, "Client: %s\n", clientName)
	fmt.Fprintf(&b, "Date: %s\n\n", submittedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Notes:\n%s\n\n", notes)
	fmt.Fprintf(&b, "Selected files (%d):\n%s", len(fileNames), strings.Join(fileNames, "\n"))
	return b.String()
}

var spaces = regexp.MustCompile(`\s+`)

// DownloadFileName is "<client name>_selection.txt" with spaces replaced.
func DownloadFileName(clientName string) string {
	name := spaces.ReplaceAllString(strings.TrimSpace(clientName), "_")
	if name == "" {
		name = "client"
	}
	return name + "_selection.txt"
}

package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
)

var (
	ErrEmptySelection = errors.New("no photos selected")
	ErrUnknownEvent   = errors.New("event is not registered for submissions")
)

// Request is what the client sends from the review screen.
type Request struct {
	Event      gallery.Event   `validate:"-"`
	ClientName string          `validate:"required,min=1,max=150"`
	Notes      string          `validate:"max=5000"`
	AIMessage  string          `validate:"max=10000"`
	Photos     []gallery.Photo `validate:"-"`
}

// Receipt confirms an accepted submission.
type Receipt struct {
	Reference   string    `json:"reference,omitempty"`
	PhotoCount  int       `json:"photo_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Sink accepts a final selection.
type Sink interface {
	Submit(ctx context.Context, req Request) (*Receipt, error)
}

var validate = validator.New()

// ValidationError lists the fields that failed
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "invalid submission: " + strings.Join(parts, ", ")
}

// Normalize trims the free text fields in place
func (r *Request) Normalize() {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.Notes = strings.TrimSpace(r.Notes)
	r.AIMessage = strings.TrimSpace(r.AIMessage)
}

// Validate checks the request. The selection must not be empty.
func (r *Request) Validate() error {
	if len(r.Photos) == 0 {
		return ErrEmptySelection
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &ValidationError{Fields: map[string]string{}}
		for _, fe := range verrs {
			out.Fields[fe.Field()] = fieldMessage(fe)
		}
		return out
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	}
	return "is invalid"
}

// PhotoIDs returns the ids of the selected photos in order
func (r *Request) PhotoIDs() []string {
	ids := make([]string, len(r.Photos))
	for i, p := range r.Photos {
		ids[i] = p.ID
	}
	return ids
}

// UserMessage maps submit errors to the text shown on the review page.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySelection):
		return "Select at least one photo before submitting."
	case errors.As(err, &verr):
		if _, ok := verr.Fields["ClientName"]; ok {
			return "Please enter your name."
		}
		return "Please check your notes and try again."
	case errors.Is(err, ErrUnknownEvent):
		return "This gallery does not accept submissions."
	}
	return "Your selection could not be sent. Please try again."
}

// NoopSink accepts everything and stores nothing.
type NoopSink struct {
	now func() time.Time
}

func (s NoopSink) Submit(ctx context.Context, req Request) (*Receipt, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	return &Receipt{PhotoCount: len(req.Photos), SubmittedAt: now}, nil
}

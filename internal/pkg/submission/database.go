package submission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/mail"
)

// Notifier sends a notification mail.
type Notifier func(to, subject, body string) error

// DatabaseSink stores submissions and mails the photographer.
type DatabaseSink struct {
	events      repository.EventRepository
	submissions repository.SubmissionRepository
	notifyTo    string
	notify      Notifier
}

// NewDatabaseSink creates a sink. With an empty notifyTo no mail is sent.
func NewDatabaseSink(events repository.EventRepository, submissions repository.SubmissionRepository, notifyTo string) *DatabaseSink {
	return &DatabaseSink{
		events:      events,
		submissions: submissions,
		notifyTo:    notifyTo,
		notify:      mail.SendMail,
	}
}

func (s *DatabaseSink) resolveEvent(req Request) (*models.Event, error) {
	if id, err := strconv.ParseUint(req.Event.ID, 10, 64); err == nil && id > 0 {
		ev, err := s.events.GetByID(uint(id))
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if req.Event.Code != "" {
		ev, err := s.events.GetByCode(req.Event.Code)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, ErrUnknownEvent
}

// Submit validates and persists the request
func (s *DatabaseSink) Submit(ctx context.Context, req Request) (*Receipt, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ev, err := s.resolveEvent(req)
	if err != nil {
		return nil, err
	}

	row := &models.Submission{
		EventID:            ev.ID,
		ClientName:         req.ClientName,
		Notes:              req.Notes,
		AIGeneratedMessage: req.AIMessage,
		SelectedPhotoIDs:   models.StringList(req.PhotoIDs()),
	}
	if err := s.submissions.Create(row); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	log.Infof("[Submission] %s submitted %d photos for event %s (ref %s)", row.ClientName, row.PhotoCount, ev.Code, row.Reference)

	if s.notifyTo != "" && s.notify != nil {
		subject := fmt.Sprintf("New photo selection from %s (%s)", row.ClientName, ev.Name)
		if err := s.notify(s.notifyTo, subject, notificationBody(ev.Name, req, row.Reference)); err != nil {
			log.Warnf("[Submission] Failed to send notification for %s: %v", row.Reference, err)
		}
	}

	return &Receipt{Reference: row.Reference, PhotoCount: row.PhotoCount, SubmittedAt: row.SubmittedAt}, nil
}

func notificationBody(eventName string, req Request, reference string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s selected %d photos in %s (reference %s).\n", req.ClientName, len(req.Photos), eventName, reference)
	if req.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", req.Notes)
	}
	if req.AIMessage != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", req.AIMessage)
	}
	b.WriteString("\nFiles:\n")
	for _, n := range names(req.Photos) {
		b.WriteString(n + "\n")
	}
	return b.String()
}

// New returns the sink selected by mode: "database" (default) or "none".
func New(mode string, repos *repository.Repositories, notifyTo string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "database", "db":
		return NewDatabaseSink(repos.Event, repos.Submission, notifyTo), nil
	case "none", "noop":
		log.Info("[Submission] Submissions are accepted but not stored")
		return NoopSink{}, nil
	}
	return nil, fmt.Errorf("unknown SUBMISSION_MODE %q", mode)
}

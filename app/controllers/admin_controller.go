package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/shortener"
	"github.com/ManuelReschke/PixelProof/internal/pkg/statistics"
)

const (
	pathAdminEvents = "/admin/events"
	eventsPerPage   = 50
)

func eventPath(id uint) string {
	return fmt.Sprintf("%s/%d", pathAdminEvents, id)
}

// HandleAdminDashboard shows the cached totals and the latest submissions.
func HandleAdminDashboard(c *fiber.Ctx) error {
	data := &statistics.DashboardData{}
	if deps.Stats != nil {
		d, err := deps.Stats.Dashboard()
		if err != nil {
			log.Errorf("[Admin] Dashboard statistics failed: %v", err)
			flash.Set(c, fiber.Map{"type": flash.TypeError, "message": "Statistics are unavailable right now"})
		} else {
			data = d
		}
	}
	return render(c, "admin/dashboard", "Dashboard", layoutAdmin, fiber.Map{
		"Stats": data,
	})
}

// HandleAdminEvents lists all events with their counters.
func HandleAdminEvents(c *fiber.Ctx) error {
	events, err := deps.Repos.Event.List(0, eventsPerPage)
	if err != nil {
		log.Errorf("[Admin] Listing events failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "events could not be loaded")
	}
	return render(c, "admin/events", "Events", layoutAdmin, fiber.Map{
		"Events": events,
	})
}

// uniqueEventCode generates codes until an unused one turns up.
func uniqueEventCode() (string, error) {
	for i := 0; i < 5; i++ {
		code, err := shortener.GenerateEventCode(shortener.DefaultCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := deps.Repos.Event.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("no free event code found")
}

// HandleAdminEventCreate creates an event. A blank code is generated.
func HandleAdminEventCreate(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	code := shortener.NormalizeEventCode(c.FormValue("code"))

	if code == "" {
		generated, err := uniqueEventCode()
		if err != nil {
			log.Errorf("[Admin] Event code generation failed: %v", err)
			return flash.Error(c, pathAdminEvents, "Could not generate an event code")
		}
		code = generated
	} else if exists, err := deps.Repos.Event.CodeExists(code); err != nil || exists {
		return flash.Error(c, pathAdminEvents, "The code "+code+" is already in use")
	}

	event := &models.Event{Name: name, Code: code}
	if err := deps.Repos.Event.Create(event); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return flash.Error(c, pathAdminEvents, "Name needs 3 to 255 characters, the code 4 to 64 letters, digits, - or _")
		}
		log.Errorf("[Admin] Creating event failed: %v", err)
		return flash.Error(c, pathAdminEvents, "The event could not be created")
	}
	invalidateStats()
	log.Infof("[Admin] Event %s (%s) created", event.Name, event.Code)
	return flash.Success(c, eventPath(event.ID), "Event created. Share the code "+event.Code+" with your client.")
}

// HandleAdminEventShow shows photos, uploads and submissions of one event.
func HandleAdminEventShow(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	photos, err := deps.Repos.Photo.GetByEventID(event.ID, 0)
	if err != nil {
		log.Errorf("[Admin] Listing photos of event %d failed: %v", event.ID, err)
	}
	submissions, err := deps.Repos.Submission.GetByEventID(event.ID)
	if err != nil {
		log.Errorf("[Admin] Listing submissions of event %d failed: %v", event.ID, err)
	}
	settings := models.GetAppSettings()
	return render(c, "admin/event", event.Name, layoutAdmin, fiber.Map{
		"Event":         event,
		"Photos":        photos,
		"Submissions":   submissions,
		"Uploads":       deps.Uploads.List(event.ID),
		"UploadSummary": deps.Uploads.Summarize(event.ID),
		"UploadEnabled": settings.IsUploadEnabled(),
		"DirectUploads": deps.StoreConfig != nil,
	})
}

// HandleAdminEventDelete removes an event and its photos. Stored files are
// deleted in the background.
func HandleAdminEventDelete(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	photos, err := deps.Repos.Photo.DeleteByEventID(event.ID)
	if err != nil {
		log.Errorf("[Admin] Deleting photos of event %d failed: %v", event.ID, err)
		return flash.Error(c, eventPath(event.ID), "The event could not be deleted")
	}
	if err := deps.Repos.Event.Delete(event.ID); err != nil {
		log.Errorf("[Admin] Deleting event %d failed: %v", event.ID, err)
		return flash.Error(c, eventPath(event.ID), "The event could not be deleted")
	}
	removeStoredFiles(photos)
	deps.InvalidateCatalog(event.Code)
	invalidateStats()
	return flash.Success(c, pathAdminEvents, fmt.Sprintf("Event %s deleted", event.Name))
}

func loadEvent(c *fiber.Ctx) (*models.Event, bool) {
	id, ok := paramUint(c, "id")
	if !ok {
		return nil, false
	}
	event, err := deps.Repos.Event.GetByID(id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Admin] Loading event %d failed: %v", id, err)
		}
		return nil, false
	}
	return event, true
}

// removeStoredFiles queues storage deletes. Failures only get logged.
func removeStoredFiles(photos []models.Photo) {
	if len(photos) == 0 {
		return
	}
	if deps.Jobs == nil {
		log.Warnf("[Admin] No job queue, %d stored files stay behind", len(photos))
		return
	}
	if queued := deps.Jobs.EnqueueStorageDelete(photos); queued < len(photos) {
		log.Warnf("[Admin] Only %d of %d storage deletes queued", queued, len(photos))
	}
}

func invalidateStats() {
	if deps.Stats != nil {
		deps.Stats.Invalidate()
	}
}

package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
)

// photosChanged drops everything that caches the photos of event and
// reloads the galleries clients have open.
func photosChanged(ctx context.Context, event *models.Event, removed []models.Photo) {
	removeStoredFiles(removed)
	deps.InvalidateCatalog(event.Code)
	invalidateStats()
	refreshGalleries(ctx, event.Code)
}

func loadEventPhoto(c *fiber.Ctx) (*models.Event, *models.Photo, bool) {
	event, ok := loadEvent(c)
	if !ok {
		return nil, nil, false
	}
	photoID, ok := paramUint(c, "photo")
	if !ok {
		return event, nil, false
	}
	photo, err := deps.Repos.Photo.GetByID(photoID)
	if err != nil || photo.EventID != event.ID {
		return event, nil, false
	}
	return event, photo, true
}

// HandleAdminPhotoRename changes the file name clients see.
func HandleAdminPhotoRename(c *fiber.Ctx) error {
	event, photo, ok := loadEventPhoto(c)
	if event == nil {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	if !ok {
		return flash.Error(c, eventPath(event.ID), "Photo not found")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" || len(name) > 255 {
		return flash.Error(c, eventPath(event.ID), "The name must have 1 to 255 characters")
	}
	if err := deps.Repos.Photo.Rename(photo.ID, name); err != nil {
		log.Errorf("[Admin] Renaming photo %d failed: %v", photo.ID, err)
		return flash.Error(c, eventPath(event.ID), "The photo could not be renamed")
	}
	deps.InvalidateCatalog(event.Code)
	refreshGalleries(c.UserContext(), event.Code)
	return flash.Success(c, eventPath(event.ID), "Photo renamed to "+name)
}

// HandleAdminPhotoDelete removes one photo.
func HandleAdminPhotoDelete(c *fiber.Ctx) error {
	event, photo, ok := loadEventPhoto(c)
	if event == nil {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	if !ok {
		return flash.Error(c, eventPath(event.ID), "Photo not found")
	}
	removed, err := deps.Repos.Photo.Delete(photo.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return flash.Error(c, eventPath(event.ID), "Photo not found")
		}
		log.Errorf("[Admin] Deleting photo %d failed: %v", photo.ID, err)
		return flash.Error(c, eventPath(event.ID), "The photo could not be deleted")
	}
	photosChanged(c.UserContext(), event, []models.Photo{*removed})
	return flash.Success(c, eventPath(event.ID), removed.Name+" deleted")
}

// parseIDs reads the repeated form field "ids".
func parseIDs(c *fiber.Ctx) []uint {
	var ids []uint
	for _, raw := range c.Context().PostArgs().PeekMulti("ids") {
		if id, err := strconv.ParseUint(string(raw), 10, 64); err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

// HandleAdminPhotosBulkDelete removes the checked photos.
func HandleAdminPhotosBulkDelete(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	ids := parseIDs(c)
	if len(ids) == 0 {
		return flash.Info(c, eventPath(event.ID), "No photos selected")
	}
	removed, err := deps.Repos.Photo.DeleteByIDs(event.ID, ids)
	if err != nil {
		log.Errorf("[Admin] Bulk delete in event %d failed: %v", event.ID, err)
		return flash.Error(c, eventPath(event.ID), "The photos could not be deleted")
	}
	photosChanged(c.UserContext(), event, removed)
	return flash.Success(c, eventPath(event.ID), fmt.Sprintf("%d photos deleted", len(removed)))
}

// HandleAdminPhotosClear empties the gallery of an event.
func HandleAdminPhotosClear(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	removed, err := deps.Repos.Photo.DeleteByEventID(event.ID)
	if err != nil {
		log.Errorf("[Admin] Clearing event %d failed: %v", event.ID, err)
		return flash.Error(c, eventPath(event.ID), "The gallery could not be cleared")
	}
	photosChanged(c.UserContext(), event, removed)
	return flash.Success(c, eventPath(event.ID), fmt.Sprintf("Gallery cleared, %d photos removed", len(removed)))
}

// HandleAdminSubmissionDownload sends the selection of one submission as a
// text file.
func HandleAdminSubmissionDownload(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	sub, err := deps.Repos.Submission.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		log.Errorf("[Admin] Loading submission %d failed: %v", id, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	eventName := ""
	names := map[string]string{}
	if event, err := deps.Repos.Event.GetByID(sub.EventID); err == nil {
		eventName = event.Name
		photos, _ := deps.Repos.Photo.GetByEventID(event.ID, 0)
		for _, p := range photos {
			names[p.UUID] = p.Name
		}
	}
	files := make([]string, len(sub.SelectedPhotoIDs))
	for i, pid := range sub.SelectedPhotoIDs {
		if name, ok := names[pid]; ok {
			files[i] = name
		} else {
			files[i] = pid
		}
	}

	body := submission.DownloadText(eventName, sub.ClientName, sub.Notes, sub.SubmittedAt, files)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", submission.DownloadFileName(sub.ClientName)))
	return c.SendString(body)
}

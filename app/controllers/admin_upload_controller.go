package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
	"github.com/ManuelReschke/PixelProof/internal/pkg/security"
	"github.com/ManuelReschke/PixelProof/internal/pkg/upload"
	"github.com/ManuelReschke/PixelProof/internal/pkg/uploadqueue"
	"github.com/ManuelReschke/PixelProof/views/partials"
)

// MaxUploadSize is the largest photo accepted per file.
const MaxUploadSize = 50 << 20

var (
	errUploadsDisabled = errors.New("uploads are disabled in the settings")
	errFileTooLarge    = fmt.Errorf("the file is larger than %d MB", MaxUploadSize>>20)
)

// eventFolder is where the photos of event are stored.
func eventFolder(event *models.Event) string {
	if deps.StoreConfig != nil {
		return deps.StoreConfig.EventFolder(event.UUID)
	}
	return "events/" + event.UUID
}

// registerPhoto creates the row of a stored photo and queues its processing.
func registerPhoto(event *models.Event, fileName, contentType string, stored *objectstore.UploadResult) (*models.Photo, error) {
	photo := &models.Photo{
		EventID:     event.ID,
		Name:        fileName,
		ObjectKey:   stored.Key,
		URL:         stored.URL,
		ContentType: contentType,
		FileSize:    stored.Size,
	}
	if err := deps.Repos.Photo.Create(photo); err != nil {
		return nil, fmt.Errorf("saving photo %s: %w", fileName, err)
	}
	if deps.Jobs != nil {
		if _, err := deps.Jobs.EnqueuePhotoProcessing(photo); err != nil {
			log.Errorf("[Admin] Failed to enqueue processing for photo %s: %v", photo.UUID, err)
		}
	}
	deps.InvalidateCatalog(event.Code)
	invalidateStats()
	return photo, nil
}

// readUpload loads a multipart file into memory. The temporary file behind
// fh is gone once the handler returns, so the queue gets the bytes.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadSize {
		return nil, errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

func failedUpload(err error) uploadqueue.UploadFunc {
	return func(context.Context) (uploadqueue.Result, error) {
		return uploadqueue.Result{}, err
	}
}

// queueUpload validates one file and queues it. Invalid files still get an
// item so the admin sees why they were rejected.
func queueUpload(event *models.Event, fh *multipart.FileHeader) uploadqueue.Item {
	data, err := readUpload(fh)
	if err != nil {
		return deps.Uploads.Add(event.ID, fh.Filename, fh.Size, "", failedUpload(err))
	}
	head := data
	if len(head) > upload.SniffLen {
		head = head[:upload.SniffLen]
	}
	contentType, err := upload.ValidateImageBySniff(fh.Filename, head)
	if err != nil {
		return deps.Uploads.Add(event.ID, fh.Filename, int64(len(data)), "", failedUpload(err))
	}
	if contentType == "application/octet-stream" {
		contentType = fh.Header.Get(fiber.HeaderContentType)
	}

	ev := *event
	return deps.Uploads.Add(event.ID, fh.Filename, int64(len(data)), contentType, func(ctx context.Context) (uploadqueue.Result, error) {
		stored, err := deps.Store.Upload(ctx, bytes.NewReader(data), int64(len(data)), fh.Filename, contentType, eventFolder(&ev))
		if err != nil {
			return uploadqueue.Result{}, err
		}
		photo, err := registerPhoto(&ev, fh.Filename, contentType, stored)
		if err != nil {
			return uploadqueue.Result{}, err
		}
		return uploadqueue.Result{PhotoUUID: photo.UUID, URL: photo.URL}, nil
	})
}

func isHTMX(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

func renderUploadQueue(c *fiber.Ctx, eventID uint) error {
	return renderComponent(c, partials.UploadQueue(partials.UploadQueueData{
		EventID: eventID,
		Items:   deps.Uploads.List(eventID),
		Summary: deps.Uploads.Summarize(eventID),
		CSRF:    csrfToken(c),
	}))
}

// HandleAdminUpload queues every file of the multipart field "files".
func HandleAdminUpload(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return flash.Error(c, pathAdminEvents, "Event not found")
	}
	if !models.GetAppSettings().IsUploadEnabled() {
		return flash.Error(c, eventPath(event.ID), errUploadsDisabled.Error())
	}

	form, err := c.MultipartForm()
	if err != nil {
		return flash.Error(c, eventPath(event.ID), "No files received")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return flash.Error(c, eventPath(event.ID), "Please choose at least one photo")
	}
	for _, fh := range files {
		queueUpload(event, fh)
	}
	log.Infof("[Admin] %d files queued for event %s", len(files), event.Code)

	if isHTMX(c) {
		return renderUploadQueue(c, event.ID)
	}
	return flash.Info(c, eventPath(event.ID), fmt.Sprintf("%d files queued", len(files)))
}

// HandleAdminUploadQueue renders the queue fragment the event page polls.
func HandleAdminUploadQueue(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"items":   deps.Uploads.List(id),
			"summary": deps.Uploads.Summarize(id),
		})
	}
	return renderUploadQueue(c, id)
}

// HandleAdminUploadsClear drops finished items from the queue.
func HandleAdminUploadsClear(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	removed := deps.Uploads.ClearCompleted(id)
	if isHTMX(c) {
		return renderUploadQueue(c, id)
	}
	return flash.Info(c, eventPath(id), fmt.Sprintf("%d finished uploads cleared", removed))
}

// PresignRequest asks for a direct upload URL.
type PresignRequest struct {
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// PresignResponse is everything the browser needs for one direct upload.
type PresignResponse struct {
	Item   uploadqueue.Item             `json:"item"`
	Grant  string                       `json:"grant"`
	Upload *objectstore.PresignedUpload `json:"upload"`
}

// DirectResultRequest reports the outcome of a direct upload.
type DirectResultRequest struct {
	Grant   string `json:"grant"`
	Message string `json:"message"`
}

// HandleAdminUploadPresign issues a presigned PUT for one file and tracks
// it in the queue.
func HandleAdminUploadPresign(c *fiber.Ctx) error {
	event, ok := loadEvent(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "unknown_event", "Event not found")
	}
	if !models.GetAppSettings().IsUploadEnabled() {
		return jsonError(c, fiber.StatusForbidden, "uploads_disabled", errUploadsDisabled.Error())
	}
	if deps.StoreConfig == nil {
		return jsonError(c, fiber.StatusConflict, "direct_unavailable", "Direct uploads need a storage bucket")
	}

	var req PresignRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	switch {
	case strings.TrimSpace(req.FileName) == "":
		return jsonError(c, fiber.StatusBadRequest, "invalid_file", "A file name is required")
	case !upload.AllowedExtension(req.FileName):
		return jsonError(c, fiber.StatusUnsupportedMediaType, "invalid_file", upload.ErrUnsupportedExtension.Error())
	case req.Size <= 0 || req.Size > MaxUploadSize:
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "invalid_file", errFileTooLarge.Error())
	case req.ContentType != "" && !strings.HasPrefix(req.ContentType, "image/"):
		return jsonError(c, fiber.StatusUnsupportedMediaType, "invalid_file", upload.ErrUnsupportedType.Error())
	}

	presigned, err := deps.Store.PresignUpload(c.UserContext(), req.FileName, req.ContentType, eventFolder(event))
	if err != nil {
		log.Errorf("[Admin] Presign for %s failed: %v", req.FileName, err)
		return jsonError(c, fiber.StatusBadGateway, "presign_failed", objectstore.UserMessage(err))
	}
	grant, err := security.GenerateUploadGrant(security.UploadGrantClaims{
		EventID:   event.ID,
		ObjectKey: presigned.Key,
		FileName:  req.FileName,
		MaxBytes:  MaxUploadSize,
	}, objectstore.DefaultPresignTTL, deps.GrantSecret)
	if err != nil {
		log.Errorf("[Admin] Upload grant failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "grant_failed", "Direct uploads are not configured")
	}

	item := deps.Uploads.AddDirect(event.ID, req.FileName, req.Size, req.ContentType, presigned.Key)
	return c.Status(fiber.StatusCreated).JSON(PresignResponse{Item: item, Grant: grant, Upload: presigned})
}

// directItem checks the grant against the tracked item.
func directItem(c *fiber.Ctx, req *DirectResultRequest) (uploadqueue.Item, *security.UploadGrantClaims, error) {
	if err := c.BodyParser(req); err != nil {
		return uploadqueue.Item{}, nil, jsonError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	claims, err := security.VerifyUploadGrant(req.Grant, deps.GrantSecret)
	if err != nil {
		return uploadqueue.Item{}, nil, jsonError(c, fiber.StatusForbidden, "invalid_grant", err.Error())
	}
	item, ok := deps.Uploads.Get(c.Params("item"))
	if !ok || !item.Direct || item.ObjectKey != claims.ObjectKey || item.EventID != claims.EventID {
		return uploadqueue.Item{}, nil, jsonError(c, fiber.StatusNotFound, "unknown_upload", "Upload not found")
	}
	return item, claims, nil
}

// HandleAdminUploadComplete registers a photo the browser put into the
// bucket.
func HandleAdminUploadComplete(c *fiber.Ctx) error {
	var req DirectResultRequest
	item, claims, err := directItem(c, &req)
	if claims == nil {
		return err
	}
	if item.Done() {
		return c.JSON(item)
	}

	event, err := deps.Repos.Event.GetByID(claims.EventID)
	if err != nil {
		deps.Uploads.Fail(item.ID, errors.New("the event no longer exists"))
		return jsonError(c, fiber.StatusNotFound, "unknown_event", "Event not found")
	}
	exists, err := deps.Store.Exists(c.UserContext(), claims.ObjectKey)
	if err != nil || !exists {
		if err == nil {
			err = errors.New("the file did not arrive in the bucket")
		}
		deps.Uploads.Fail(item.ID, &objectstore.UploadError{Key: claims.ObjectKey, Err: err})
		updated, _ := deps.Uploads.Get(item.ID)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(updated)
	}

	photo, err := registerPhoto(event, claims.FileName, item.ContentType, &objectstore.UploadResult{
		Key:  claims.ObjectKey,
		URL:  deps.StoreConfig.PublicURL(claims.ObjectKey),
		Size: item.Size,
	})
	if err != nil {
		log.Errorf("[Admin] %v", err)
		deps.Uploads.Fail(item.ID, err)
		updated, _ := deps.Uploads.Get(item.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(updated)
	}
	deps.Uploads.Complete(item.ID, uploadqueue.Result{PhotoUUID: photo.UUID, URL: photo.URL})
	updated, _ := deps.Uploads.Get(item.ID)
	return c.JSON(updated)
}

// HandleAdminUploadFail records the error the browser hit. Network errors
// are reported as CORS problems with instructions for the bucket.
func HandleAdminUploadFail(c *fiber.Ctx) error {
	var req DirectResultRequest
	item, claims, err := directItem(c, &req)
	if claims == nil {
		return err
	}
	bucket := ""
	if deps.Store != nil {
		bucket = deps.Store.Bucket()
	}
	deps.Uploads.Fail(item.ID, objectstore.ClassifyBrowserFailure(bucket, claims.ObjectKey, req.Message))
	updated, _ := deps.Uploads.Get(item.ID)
	return c.JSON(updated)
}

package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/flash"
	"github.com/ManuelReschke/PixelProof/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelProof/internal/pkg/statistics"
)

const (
	pathAdminSettings = "/admin/settings"
	pathAdminJobs     = "/admin/jobs"
	jobsListLimit     = 50
)

// HandleAdminSettings shows the settings form.
func HandleAdminSettings(c *fiber.Ctx) error {
	settings, err := deps.Repos.Setting.Get()
	if err != nil {
		log.Errorf("[Admin] Loading settings failed: %v", err)
		settings = models.DefaultAppSettings()
	}
	return render(c, "admin/settings", "Settings", layoutAdmin, fiber.Map{
		"Settings": settings,
	})
}

// HandleAdminSettingsPost validates and stores the settings form.
func HandleAdminSettingsPost(c *fiber.Ctx) error {
	workers, err := strconv.Atoi(c.FormValue("job_queue_worker_count"))
	if err != nil {
		return flash.Error(c, pathAdminSettings, "The worker count must be a number")
	}
	settings := &models.AppSettings{
		SiteTitle:           strings.TrimSpace(c.FormValue("site_title")),
		SiteDescription:     strings.TrimSpace(c.FormValue("site_description")),
		WatermarkText:       strings.TrimSpace(c.FormValue("watermark_text")),
		ShowWatermark:       c.FormValue("show_watermark") == "on",
		WhatsAppNumber:      strings.TrimSpace(c.FormValue("whatsapp_number")),
		UploadEnabled:       c.FormValue("upload_enabled") == "on",
		JobQueueWorkerCount: workers,
		DraftModel:          strings.TrimSpace(c.FormValue("draft_model")),
	}
	if settings.DraftModel == "" {
		settings.DraftModel = models.DefaultDraftModel
	}

	if err := deps.Repos.Setting.Save(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return flash.Error(c, pathAdminSettings, "Invalid values: "+strings.Join(fields, ", "))
		}
		log.Errorf("[Admin] Saving settings failed: %v", err)
		return flash.Error(c, pathAdminSettings, "The settings could not be saved")
	}
	log.Info("[Admin] Settings updated")
	return flash.Success(c, pathAdminSettings, "Settings saved")
}

// HandleAdminJobs lists the latest background jobs and their counters.
func HandleAdminJobs(c *fiber.Ctx) error {
	if deps.JobAdmin == nil {
		return render(c, "admin/jobs", "Jobs", layoutAdmin, fiber.Map{
			"Unavailable":  true,
			"CachedGroups": cachedListings(c),
		})
	}
	jobs, err := deps.JobAdmin.ListJobs(c.UserContext(), jobsListLimit)
	if err != nil {
		log.Errorf("[Admin] Listing jobs failed: %v", err)
	}
	stats, err := deps.JobAdmin.GetJobStats(c.UserContext())
	if err != nil {
		log.Errorf("[Admin] Loading job stats failed: %v", err)
		stats = map[jobqueue.JobStatus]int64{}
	}
	return render(c, "admin/jobs", "Jobs", layoutAdmin, fiber.Map{
		"Jobs":         jobs,
		"Stats":        stats,
		"CachedGroups": cachedListings(c),
		"Statuses": []jobqueue.JobStatus{
			jobqueue.JobStatusPending,
			jobqueue.JobStatusProcessing,
			jobqueue.JobStatusRetrying,
			jobqueue.JobStatusCompleted,
			jobqueue.JobStatusFailed,
		},
	})
}

// HandleAdminJobRetry puts a failed job back into the queue.
func HandleAdminJobRetry(c *fiber.Ctx) error {
	if deps.JobAdmin == nil {
		return flash.Error(c, pathAdminJobs, "The job queue is not running")
	}
	id := c.Params("id")
	if err := deps.JobAdmin.RetryJob(c.UserContext(), id); err != nil {
		log.Warnf("[Admin] Retrying job %s failed: %v", id, err)
		return flash.Error(c, pathAdminJobs, "The job could not be retried")
	}
	return flash.Success(c, pathAdminJobs, "Job "+id+" queued again")
}

// cachedKeyPatterns are the Redis keys that only hold derived data.
var cachedKeyPatterns = []string{catalog.CacheKeyPattern, statistics.CacheKeyDashboard}

// cachedListings counts the cached keys, -1 when Redis is not reachable.
func cachedListings(c *fiber.Ctx) int {
	if deps.Cache == nil {
		return -1
	}
	keys, err := deps.Cache.FindKeysByPatterns(c.UserContext(), cachedKeyPatterns)
	if err != nil {
		log.Warnf("[Admin] Scanning cache keys failed: %v", err)
		return -1
	}
	return len(keys)
}

// HandleAdminCacheFlush drops cached listings and statistics. Galleries
// load fresh photo lists on their next login.
func HandleAdminCacheFlush(c *fiber.Ctx) error {
	if deps.Cache == nil {
		return flash.Error(c, pathAdminJobs, "No cache configured")
	}
	keys, err := deps.Cache.FindKeysByPatterns(c.UserContext(), cachedKeyPatterns)
	if err != nil {
		log.Errorf("[Admin] Scanning cache keys failed: %v", err)
		return flash.Error(c, pathAdminJobs, "The cache could not be read")
	}
	deleted, err := deps.Cache.DeleteKeys(c.UserContext(), keys)
	if err != nil {
		log.Errorf("[Admin] Flushing cache failed after %d keys: %v", deleted, err)
		return flash.Error(c, pathAdminJobs, "The cache could not be flushed")
	}
	log.Infof("[Admin] Flushed %d cached keys", deleted)
	return flash.Success(c, pathAdminJobs, fmt.Sprintf("%d cached entries removed", deleted))
}

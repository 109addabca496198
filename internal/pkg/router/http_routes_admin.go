package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelProof/app/controllers"
	"github.com/ManuelReschke/PixelProof/internal/pkg/middleware"
)

// registerAdminRoutes installs the photographer pages on a CSRF protected
// group. RequireAdmin sits on each route so /admin/login stays reachable.
func (h HttpRouter) registerAdminRoutes(group fiber.Router) {
	group.Get("/admin/login", loginLimiter(), controllers.HandleAdminLogin)
	group.Post("/admin/login", loginLimiter(), controllers.HandleAdminLogin)
	group.Post("/admin/logout", middleware.RequireAdmin, controllers.HandleAdminLogout)

	group.Get("/admin", middleware.RequireAdmin, controllers.HandleAdminDashboard)

	// Events
	group.Get("/admin/events", middleware.RequireAdmin, controllers.HandleAdminEvents)
	group.Post("/admin/events", middleware.RequireAdmin, controllers.HandleAdminEventCreate)
	group.Get("/admin/events/:id", middleware.RequireAdmin, controllers.HandleAdminEventShow)
	group.Post("/admin/events/:id/delete", middleware.RequireAdmin, controllers.HandleAdminEventDelete)

	// Uploads
	group.Post("/admin/events/:id/upload", middleware.RequireAdmin, controllers.HandleAdminUpload)
	group.Get("/admin/events/:id/uploads", middleware.RequireAdmin, controllers.HandleAdminUploadQueue)
	group.Post("/admin/events/:id/uploads/clear", middleware.RequireAdmin, controllers.HandleAdminUploadsClear)
	group.Post("/admin/events/:id/uploads/presign", middleware.RequireAdminAPI, controllers.HandleAdminUploadPresign)
	group.Post("/admin/uploads/:item/complete", middleware.RequireAdminAPI, controllers.HandleAdminUploadComplete)
	group.Post("/admin/uploads/:item/fail", middleware.RequireAdminAPI, controllers.HandleAdminUploadFail)

	// Photos
	group.Post("/admin/events/:id/photos/bulk-delete", middleware.RequireAdmin, controllers.HandleAdminPhotosBulkDelete)
	group.Post("/admin/events/:id/photos/clear", middleware.RequireAdmin, controllers.HandleAdminPhotosClear)
	group.Post("/admin/events/:id/photos/:photo/rename", middleware.RequireAdmin, controllers.HandleAdminPhotoRename)
	group.Post("/admin/events/:id/photos/:photo/delete", middleware.RequireAdmin, controllers.HandleAdminPhotoDelete)

	// Submissions
	group.Get("/admin/submissions/:id/download", middleware.RequireAdmin, controllers.HandleAdminSubmissionDownload)

	// Settings + job queue monitor
	group.Get("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettings)
	group.Post("/admin/settings", middleware.RequireAdmin, controllers.HandleAdminSettingsPost)
	group.Get("/admin/jobs", middleware.RequireAdmin, controllers.HandleAdminJobs)
	group.Post("/admin/jobs/:id/retry", middleware.RequireAdmin, controllers.HandleAdminJobRetry)
	group.Post("/admin/cache/flush", middleware.RequireAdmin, controllers.HandleAdminCacheFlush)
}

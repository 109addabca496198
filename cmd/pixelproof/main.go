package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	flog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PixelProof/app/controllers"
	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/app/repository"
	"github.com/ManuelReschke/PixelProof/internal/pkg/cache"
	"github.com/ManuelReschke/PixelProof/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
	"github.com/ManuelReschke/PixelProof/internal/pkg/draft"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
	"github.com/ManuelReschke/PixelProof/internal/pkg/gallery"
	"github.com/ManuelReschke/PixelProof/internal/pkg/health"
	"github.com/ManuelReschke/PixelProof/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelProof/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PixelProof/internal/pkg/objectstore"
	"github.com/ManuelReschke/PixelProof/internal/pkg/router"
	"github.com/ManuelReschke/PixelProof/internal/pkg/statistics"
	"github.com/ManuelReschke/PixelProof/internal/pkg/submission"
	"github.com/ManuelReschke/PixelProof/internal/pkg/uploadqueue"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// findBasePath locates the directory that holds views/ and public/.
func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/pixelproof to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			return path
		}
	}
	panic("Could not find project root directory")
}

// wireDependencies builds the gallery, storage and job components and hands
// them to the controllers.
func wireDependencies(ctx context.Context, basePath string) {
	db := database.GetDB()
	if err := models.LoadSettings(db); err != nil {
		flog.Warnf("[App] Loading settings failed, using defaults: %v", err)
	}
	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()
	client := cache.GetClient()

	source, err := catalog.NewSource(catalog.Config{
		Source:       env.GetEnv("CATALOG_SOURCE", "database"),
		GoogleAPIKey: env.GetEnv("GOOGLE_API_KEY", ""),
		CacheTTL:     env.GetEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
	}, repos, client)
	if err != nil {
		panic(fmt.Sprintf("catalog setup failed: %v", err))
	}

	store, storeCfg, err := objectstore.New(ctx, basePath+"uploads", "/uploads")
	if err != nil {
		panic(fmt.Sprintf("object store setup failed: %v", err))
	}

	sink, err := submission.New(env.GetEnv("SUBMISSION_MODE", "database"), repos, env.GetEnv("NOTIFY_EMAIL", ""))
	if err != nil {
		panic(fmt.Sprintf("submission setup failed: %v", err))
	}

	drafts := draft.New(ctx, env.GetEnv("GEMINI_API_KEY", ""), func() string {
		return models.GetAppSettings().GetDraftModel()
	})

	invalidate := func(code string) {
		catalog.Invalidate(context.Background(), client, code)
	}

	manager := jobqueue.GetManager()
	manager.Configure(jobqueue.Dependencies{
		Photos: repos.Photo,
		Store:  store,
		PhotoProcessed: func(eventID uint) {
			event, err := repos.Event.GetByID(eventID)
			if err != nil {
				flog.Warnf("[App] Event %d of processed photo not found: %v", eventID, err)
				return
			}
			invalidate(event.Code)
		},
	})
	manager.Start()

	monitor := health.NewMonitor(client)
	monitor.Add("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	monitor.Add("cache", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	monitor.Add("storage", func(ctx context.Context) error {
		_, err := store.Exists(ctx, "health/probe")
		return err
	})
	health.SetDefault(monitor)
	monitor.Start(health.DefaultPeriod)

	registry := gallery.NewRegistry(env.GetEnvDuration("GALLERY_SESSION_TTL", gallery.DefaultSessionTTL))
	registry.Start(time.Minute)

	controllers.Initialize(&controllers.Dependencies{
		Repos:       repos,
		Registry:    registry,
		Catalog:     source,
		Submissions: sink,
		Drafts:      drafts,
		Store:       store,
		StoreConfig: storeCfg,
		Uploads:     uploadqueue.New(env.GetEnvInt("UPLOAD_CONCURRENCY", uploadqueue.DefaultConcurrency)),
		Jobs:        manager.GetQueue(),
		JobAdmin:    manager.GetQueue(),
		Stats:       statistics.NewService(repos, nil),
		Cache:       repository.NewCacheRepository(client),
		GrantSecret: env.GetEnv("GALLERY_TOKEN_SECRET", ""),
		CountView: func(eventID uint) {
			if err := counter.AddEventView(eventID); err != nil {
				flog.Debugf("[App] Counting view of event %d failed: %v", eventID, err)
			}
		},
		InvalidateCatalog: invalidate,
	})
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	basePath := findBasePath()
	wireDependencies(context.Background(), basePath)

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     controllers.NewViewEngine(basePath+"views", env.IsDev()),
		BodyLimit: 200 << 20, // a batch of photos
	})

	// ignore and cache favicon
	if _, err := os.Stat(basePath + "public/assets/icons/favicon.ico"); err == nil {
		app.Use(favicon.New(favicon.Config{
			File:         basePath + "public/assets/icons/favicon.ico",
			URL:          "/favicon.ico",
			CacheControl: "public, max-age=604800",
		}))
	}

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// static uploads of the local store
	app.Static("/uploads", basePath+"uploads", fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// DB is the shared connection opened by SetupDatabase.
var DB *gorm.DB

// GetDB returns the shared connection.
func GetDB() *gorm.DB {
	return DB
}

func SetupDatabase() {
	driver := env.GetEnv("DB_DRIVER", "mysql")

	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = Open(driver)
		if err == nil {
			if driver == "sqlite" {
				// sqlite has no migration runner, the schema comes from the models
				if err = AutoMigrate(DB); err != nil {
					panic(err)
				}
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Open connects with the configured driver. mysql is used in production, sqlite
// for local development.
func Open(driver string) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if !env.IsDev() {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	switch driver {
	case "mysql":
		// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			env.GetEnv("DB_USER", ""),
			env.GetEnv("DB_PASSWORD", ""),
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", ""),
		)
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(env.GetEnv("DB_SQLITE_PATH", "pixelproof.db")), cfg)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// AutoMigrate creates the schema from the models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Event{},
		&models.Photo{},
		&models.Submission{},
		&models.Setting{},
	)
}

// OpenMemory returns a private in-memory sqlite database with the schema
// applied. Used by tests.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every new connection would see a fresh empty database
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const DefaultDraftModel = "gemini-2.5-flash"

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle           string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription     string `json:"site_description" validate:"max=500"`
	WatermarkText       string `json:"watermark_text" validate:"max=100"`
	ShowWatermark       bool   `json:"show_watermark"`
	WhatsAppNumber      string `json:"whatsapp_number" validate:"omitempty,numeric,max=20"`
	UploadEnabled       bool   `json:"upload_enabled"`
	JobQueueWorkerCount int    `json:"job_queue_worker_count" validate:"min=1,max=20"`
	DraftModel          string `json:"draft_model" validate:"required,max=100"`
	mu                  sync.RWMutex
}

var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// DefaultAppSettings returns the settings used before anything was saved.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:           "PixelProof",
		SiteDescription:     "Photo proofing gallery",
		WatermarkText:       "PROOF",
		ShowWatermark:       true,
		UploadEnabled:       true,
		JobQueueWorkerCount: 3,
		DraftModel:          DefaultDraftModel,
	}
}

// GetAppSettings returns the current application settings, or the defaults
// when LoadSettings has not run yet.
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return DefaultAppSettings()
	}
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	loaded := DefaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			loaded.SiteTitle = setting.Value
		case "site_description":
			loaded.SiteDescription = setting.Value
		case "watermark_text":
			loaded.WatermarkText = setting.Value
		case "show_watermark":
			loaded.ShowWatermark = setting.Value == "true"
		case "whatsapp_number":
			loaded.WhatsAppNumber = setting.Value
		case "upload_enabled":
			loaded.UploadEnabled = setting.Value == "true"
		case "job_queue_worker_count":
			if n, err := strconv.Atoi(setting.Value); err == nil {
				loaded.JobQueueWorkerCount = n
			}
		case "draft_model":
			if setting.Value != "" {
				loaded.DraftModel = setting.Value
			}
		}
	}

	appSettings = loaded
	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		"site_title":             settings.SiteTitle,
		"site_description":       settings.SiteDescription,
		"watermark_text":         settings.WatermarkText,
		"show_watermark":         strconv.FormatBool(settings.ShowWatermark),
		"whatsapp_number":        settings.WhatsAppNumber,
		"upload_enabled":         strconv.FormatBool(settings.UploadEnabled),
		"job_queue_worker_count": strconv.Itoa(settings.JobQueueWorkerCount),
		"draft_model":            settings.DraftModel,
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
			setting = Setting{Key: key, Value: value, Type: getSettingType(key)}
			if err := db.Create(&setting).Error; err != nil {
				return fmt.Errorf("failed to create setting %s: %w", key, err)
			}
			continue
		}

		setting.Value = value
		if err := db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}

	appSettings = settings
	return nil
}

func getSettingType(key string) string {
	switch key {
	case "show_watermark", "upload_enabled":
		return "boolean"
	case "job_queue_worker_count":
		return "integer"
	default:
		return "string"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	return newValidator().Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

func (s *AppSettings) GetWhatsAppNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.WhatsAppNumber
}

func (s *AppSettings) IsUploadEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UploadEnabled
}

func (s *AppSettings) GetJobQueueWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.JobQueueWorkerCount < 1 {
		return 1
	}
	return s.JobQueueWorkerCount
}

func (s *AppSettings) GetDraftModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.DraftModel == "" {
		return DefaultDraftModel
	}
	return s.DraftModel
}

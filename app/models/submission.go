package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/internal/pkg/shortener"
)

// StringList is stored as a JSON array.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Submission is the final selection a client sent to the photographer.
type Submission struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UUID               string     `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Reference          string     `gorm:"size:32;index" json:"reference"`
	EventID            uint       `gorm:"index;not null" json:"event_id"`
	ClientName         string     `gorm:"size:150;not null" json:"client_name" validate:"required,min=1,max=150"`
	Notes              string     `gorm:"type:text" json:"notes" validate:"max=5000"`
	AIGeneratedMessage string     `gorm:"type:text" json:"ai_generated_message"`
	SelectedPhotoIDs   StringList `gorm:"type:json" json:"selected_photo_ids" validate:"required,min=1"`
	PhotoCount         int        `json:"photo_count"`
	SubmittedAt        time.Time  `json:"submitted_at"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	s.PhotoCount = len(s.SelectedPhotoIDs)
	return nil
}

// AfterCreate derives the short reference from the new id.
func (s *Submission) AfterCreate(tx *gorm.DB) error {
	if s.Reference == "" {
		s.Reference = shortener.EncodeID(s.ID)
		return tx.Model(s).Update("reference", s.Reference).Error
	}
	return nil
}

func (s *Submission) Validate() error {
	return newValidator().Struct(s)
}

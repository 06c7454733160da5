package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerationLog records that a certificate was produced. It holds no
// personal data.
type GenerationLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Reason         string    `gorm:"type:varchar(32);not null;index" json:"reason"`
	Size           int       `gorm:"not null" json:"size"`
	FontFitWarning bool      `gorm:"not null;default:false" json:"font_fit_warning"`
	Persisted      bool      `gorm:"not null;default:false" json:"persisted"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GenerationLog
func (GenerationLog) TableName() string {
	return "generation_logs"
}

// BeforeCreate assigns the primary key
func (l *GenerationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

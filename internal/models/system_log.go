package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	maxLogUserAgent = 500
	maxLogIP        = 50
)

// SystemLog is one audit or operational event.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	IP        string    `gorm:"size:50" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	Extra     string    `gorm:"type:text" json:"extra"` // JSON
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }

// BeforeCreate clips client-supplied columns to their sizes so strict
// engines (mysql, postgres) do not reject the row.
func (l *SystemLog) BeforeCreate(*gorm.DB) error {
	if len(l.UserAgent) > maxLogUserAgent {
		l.UserAgent = l.UserAgent[:maxLogUserAgent]
	}
	if len(l.IP) > maxLogIP {
		l.IP = l.IP[:maxLogIP]
	}
	return nil
}

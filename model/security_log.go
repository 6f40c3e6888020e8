package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityLog represents a persisted security/audit event (logins, contact
// messages, endpoint calls). It mirrors what the Discord audit notifier
// reports so events remain queryable after the webhook message scrolls away.
type SecurityLog struct {
	gorm.Model
	EventType string `json:"event_type" gorm:"column:event_type;type:varchar(64);index"`
	// DiscordID is the external identity of the acting user when known.
	DiscordID string `json:"discord_id" gorm:"column:discord_id;type:varchar(64);index"`
	Username  string `json:"username" gorm:"column:username;type:varchar(191);index"`
	IP        string `json:"ip" gorm:"column:ip;type:varchar(45)"`
	// Location stores city and country in the format "City/Country" when available.
	Location  string         `json:"location" gorm:"column:location;type:varchar(255)"`
	UserAgent string         `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Message   string         `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}

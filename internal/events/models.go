package events

import (
	"time"
)

// PageviewEvent is one stored pageview. Rows are append-only: the
// aggregation queries never update or delete them.
type PageviewEvent struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	VisitorID      string `gorm:"index;size:32;not null"`
	SessionID      string `gorm:"index;size:32;not null"`
	IsSessionStart bool   `gorm:"not null;default:false"`

	PageSlug  string `gorm:"index;not null"`
	PageTitle string
	PagePath  string `gorm:"not null"`
	RawURL    string
	Referrer  string

	TrafficSource  string `gorm:"index"`
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
	ReferrerDomain string `gorm:"index"`

	DeviceType string
	DeviceOS   string
	Country    string `gorm:"index"`
	Timezone   string
	Language   string

	ScreenWidth  *int
	ScreenHeight *int

	CreatedAt time.Time `gorm:"index;not null"`
}

// TableName overrides the GORM default so the table reads as what it is.
func (PageviewEvent) TableName() string {
	return "analytics_events"
}

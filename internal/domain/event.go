package domain

import (
	"time"

	"gorm.io/datatypes"
)

// EventType is the kind of tracked interaction.
type EventType string

const (
	EventTypeView  EventType = "view"
	EventTypeClick EventType = "click"
	EventTypeShare EventType = "share"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeView, EventTypeClick, EventTypeShare:
		return true
	}
	return false
}

// DeviceType is the coarse device class derived from a User-Agent.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
	DeviceUnknown DeviceType = "unknown"
)

// Column limits of the bounded Event fields.
const (
	MaxIPAddressLen = 45
	MaxCountryLen   = 64
	MaxCityLen      = 100
	MaxSessionIDLen = 100
)

// Event is one tracked view, click or share on a profile.
// Rows are written once by the ingestion gateway and never updated.
type Event struct {
	ID         string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProfileID  string     `gorm:"column:profile_id;not null;index:idx_events_profile_created,priority:1;uniqueIndex:idx_events_view_dedup,priority:1" json:"profile_id"`
	LinkID     *string    `gorm:"column:link_id;index" json:"link_id,omitempty"`
	EventType  EventType  `gorm:"column:event_type;size:10;not null;index" json:"event_type"`
	IPAddress  string     `gorm:"column:ip_address;size:45;uniqueIndex:idx_events_view_dedup,priority:2" json:"ip_address,omitempty"`
	Referrer   string     `gorm:"column:referrer;type:text" json:"referrer,omitempty"`
	UserAgent  string     `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Country    *string    `gorm:"column:country;size:64" json:"country,omitempty"`
	City       *string    `gorm:"column:city;size:100" json:"city,omitempty"`
	DeviceType DeviceType `gorm:"column:device_type;size:10;not null;default:'unknown'" json:"device_type"`
	SessionID  string     `gorm:"column:session_id;size:100" json:"session_id,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;index:idx_events_profile_created,priority:2" json:"created_at"`

	// DedupDay is set only for view events with an IP address. Together with
	// profile_id and ip_address it forms the per-day uniqueness key.
	DedupDay *datatypes.Date `gorm:"column:dedup_day;uniqueIndex:idx_events_view_dedup,priority:3" json:"-"`

	DeviceInfo   *DeviceInfo   `gorm:"column:device_info;type:jsonb;serializer:json" json:"device_info,omitempty"`
	LocationInfo *LocationInfo `gorm:"column:location_info;type:jsonb;serializer:json" json:"location_info,omitempty"`
	ReferrerInfo *ReferrerInfo `gorm:"column:referrer_info;type:jsonb;serializer:json" json:"referrer_info,omitempty"`
}

// TableName returns the table name for GORM
func (Event) TableName() string {
	return "events"
}

// DeviceInfo is the parsed User-Agent. Unknown fields hold "unknown".
type DeviceInfo struct {
	DeviceType DeviceType `json:"device_type"`
	Browser    string     `json:"browser"`
	OS         string     `json:"os"`
}

// LocationInfo is visitor geography as reported by the client or CDN headers.
// Empty strings mean the value was not supplied.
type LocationInfo struct {
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ReferrerInfo is the normalized referrer. Source is "direct" when no
// referrer was sent and "unknown" when it could not be parsed.
type ReferrerInfo struct {
	Source   string `json:"source"`
	Hostname string `json:"hostname,omitempty"`
	URL      string `json:"url,omitempty"`
}

// IngestStatus is the outcome of ingesting one event.
type IngestStatus string

const (
	IngestInserted IngestStatus = "inserted"
	IngestSkipped  IngestStatus = "skipped"
)

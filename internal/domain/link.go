package domain

import "time"

// Link is a link shown on a profile. Links are managed by the link CRUD
// flow; this service only counts them.
type Link struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProfileID string    `gorm:"column:profile_id;not null;index" json:"profile_id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;size:200" json:"title"`
	URL       string    `gorm:"column:url;type:text;not null" json:"url"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

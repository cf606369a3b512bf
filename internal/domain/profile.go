package domain

import "time"

// Profile is the public link-in-bio page owned by a user. It scopes events
// and aggregation.
type Profile struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	Username    string    `gorm:"column:username;size:50;uniqueIndex" json:"username"`
	DisplayName string    `gorm:"column:display_name;size:100" json:"display_name,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

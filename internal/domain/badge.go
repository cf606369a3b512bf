package domain

import "time"

// BadgeCategory is the taxonomy label of a badge.
type BadgeCategory string

const (
	CategoryViews        BadgeCategory = "views"
	CategoryClicks       BadgeCategory = "clicks"
	CategoryAchievements BadgeCategory = "achievements"
	CategorySpecial      BadgeCategory = "special"
)

// CriteriaType is the statistic key a badge threshold is evaluated against.
type CriteriaType string

const (
	CriteriaProfileViews    CriteriaType = "profile_views"
	CriteriaLinkClicks      CriteriaType = "link_clicks"
	CriteriaProfileShares   CriteriaType = "profile_shares"
	CriteriaTotalEvents     CriteriaType = "total_events"
	CriteriaLinksCreated    CriteriaType = "links_created"
	CriteriaUniqueVisitors  CriteriaType = "unique_visitors"
	CriteriaUniqueSessions  CriteriaType = "unique_sessions"
	CriteriaUniqueCountries CriteriaType = "unique_countries"
)

// Badge is a catalog definition. It is reference data and read-only here.
type Badge struct {
	ID           string        `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name         string        `gorm:"column:name;size:100;not null" json:"name"`
	Description  string        `gorm:"column:description;type:text" json:"description"`
	Icon         string        `gorm:"column:icon;size:50" json:"icon"`
	Category     BadgeCategory `gorm:"column:category;size:30;not null;index" json:"category"`
	CriteriaType CriteriaType  `gorm:"column:criteria_type;size:50" json:"criteria_type"`
	TargetValue  int64         `gorm:"column:target_value;not null;default:1" json:"target_value"`
	IsActive     bool          `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (Badge) TableName() string {
	return "badges"
}

// UserBadge is a user's progress toward one badge.
// IsCompleted only ever moves from false to true.
type UserBadge struct {
	UserID      string     `gorm:"primaryKey;column:user_id;type:varchar(36)" json:"user_id"`
	BadgeID     string     `gorm:"primaryKey;column:badge_id;type:varchar(36)" json:"badge_id"`
	Progress    int64      `gorm:"column:progress;not null;default:0" json:"progress"`
	IsCompleted bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	EarnedAt    *time.Time `gorm:"column:earned_at" json:"earned_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Badge *Badge `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

// TableName returns the table name for GORM
func (UserBadge) TableName() string {
	return "user_badges"
}

// ProgressPercent returns progress as a whole percentage of target, clamped to [0,100].
func ProgressPercent(progress, target int64) int {
	if target <= 0 {
		if progress > 0 {
			return 100
		}
		return 0
	}
	if progress <= 0 {
		return 0
	}
	pct := (progress*100 + target/2) / target
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// BadgeProgress is the display view of one badge for a user.
type BadgeProgress struct {
	BadgeID     string     `json:"badgeId"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Progress    int64      `json:"progress"`
	Target      int64      `json:"target"`
	Percent     int        `json:"percent"`
	IsCompleted bool       `json:"isCompleted"`
	EarnedAt    *time.Time `json:"earnedAt,omitempty"`
}

// EvaluationResult is the outcome of one rule engine run for a user.
type EvaluationResult struct {
	NewlyAwarded   []Badge         `json:"newlyAwarded"`
	TotalCompleted int             `json:"totalCompleted"`
	Progress       []BadgeProgress `json:"updatedProgress"`
}

// BadgeUpdates is the badge section attached to ingestion responses.
type BadgeUpdates struct {
	NewBadges   []Badge `json:"newBadges"`
	TotalBadges int     `json:"totalBadges"`
}

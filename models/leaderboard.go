package models

import "time"

// DefaultGroupCapacity bounds how many profiles share a weekly cohort.
const DefaultGroupCapacity = 30

// LeaderboardGroup is a weekly cohort scoped to one league. Groups are
// created lazily the first time a user needs one and are never deleted;
// prior-week groups are simply abandoned.
type LeaderboardGroup struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	League    string    `gorm:"type:varchar(16);not null;index:idx_group_league_week" json:"league"`
	WeekStart time.Time `gorm:"not null;index:idx_group_league_week" json:"week_start"`
	Capacity  int       `gorm:"not null" json:"capacity"`

	// MemberCount is denormalized so the spare-capacity query stays a single
	// indexed scan. Seats are claimed with a conditional increment; under a
	// race the count may overshoot capacity by a small bounded margin, which
	// is acceptable for cohort placement.
	MemberCount int `gorm:"not null;default:0" json:"member_count"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// WeekStartUTC canonicalizes t to Monday 00:00 UTC of its week.
func WeekStartUTC(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -daysSinceMonday)
}

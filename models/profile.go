package models

import "time"

// League tiers, lowest to highest. New profiles start in Bronze; promotion is
// handled by the product layer, this engine only reads the league when
// scoping leaderboard groups.
const (
	LeagueBronze   = "bronze"
	LeagueSilver   = "silver"
	LeagueGold     = "gold"
	LeaguePlatinum = "platinum"
	LeagueDiamond  = "diamond"
)

// Profile is the per-user mutable scoring aggregate. XP and Stars only ever
// grow, and only through the scoring engine.
type Profile struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	XP     int64  `gorm:"default:0" json:"xp"`
	Stars  int    `gorm:"default:0" json:"stars"`
	League string `gorm:"type:varchar(16);not null;default:'bronze'" json:"league"`

	// CurrentGroupID points at the user's leaderboard group. A pointer into a
	// prior week's group means the user hasn't been placed this week yet.
	CurrentGroupID *string `gorm:"type:uuid;index" json:"current_group_id,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"codequest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeaderboardService places profiles into weekly league cohorts and serves
// group standings. Placement runs inside the grading transaction; standings
// reads go to the Redis cache with a SQL fallback.
type LeaderboardService struct {
	DB       *gorm.DB
	Cache    *StandingsCache
	Capacity int
}

func NewLeaderboardService(db *gorm.DB, cache *StandingsCache) *LeaderboardService {
	capacity := models.DefaultGroupCapacity
	if v, err := strconv.Atoi(os.Getenv("GROUP_CAPACITY")); err == nil && v > 0 {
		capacity = v
	}
	return &LeaderboardService{DB: db, Cache: cache, Capacity: capacity}
}

// AssignGroup ensures the profile sits in a current-week group for its league
// and returns the group id. Runs once per graded submission regardless of
// verdict. If the profile already points at a group for this league and week
// the call is a no-op.
//
// Placement is claim-based rather than lock-based: try each group with spare
// capacity via a conditional increment, and create a fresh group when every
// claim loses its race. Creation never conflicts since a league/week may hold
// any number of groups.
func (s *LeaderboardService) AssignGroup(tx GradingTx, profile *models.Profile, now time.Time) (string, error) {
	weekStart := models.WeekStartUTC(now)

	if profile.CurrentGroupID != nil {
		current, err := tx.Group(*profile.CurrentGroupID)
		if err != nil {
			return "", fmt.Errorf("load current group: %w", err)
		}
		if current != nil && current.League == profile.League && current.WeekStart.Equal(weekStart) {
			return current.ID, nil
		}
	}

	spare, err := tx.GroupsWithCapacity(profile.League, weekStart)
	if err != nil {
		return "", fmt.Errorf("find spare groups: %w", err)
	}
	for _, g := range spare {
		claimed, err := tx.ClaimGroupSeat(g.ID)
		if err != nil {
			return "", fmt.Errorf("claim seat in group %s: %w", g.ID, err)
		}
		if !claimed {
			continue
		}
		if err := tx.SetCurrentGroup(profile.UserID, g.ID); err != nil {
			return "", err
		}
		profile.CurrentGroupID = &g.ID
		return g.ID, nil
	}

	group := &models.LeaderboardGroup{
		ID:          uuid.NewString(),
		League:      profile.League,
		WeekStart:   weekStart,
		Capacity:    s.Capacity,
		MemberCount: 1,
	}
	if err := tx.CreateGroup(group); err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}
	if err := tx.SetCurrentGroup(profile.UserID, group.ID); err != nil {
		return "", err
	}
	profile.CurrentGroupID = &group.ID
	log.Printf("[LEADERBOARD] new group %s league=%s week=%s", group.ID, group.League, weekStart.Format("2006-01-02"))
	return group.ID, nil
}

// RecordSolve bumps the user's weekly score in the standings cache. Safe to
// call with no cache configured.
func (s *LeaderboardService) RecordSolve(ctx context.Context, groupID, userID string, xp int) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.RecordSolve(ctx, groupID, userID, xp)
}

// StandingsEntry is one leaderboard row.
type StandingsEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
}

// GroupStandings returns the current-week ranking for the user's group. Cache
// first; a miss or cache error falls through to SQL so standings stay
// available when Redis is down.
func (s *LeaderboardService) GroupStandings(ctx context.Context, userID string) (string, []StandingsEntry, error) {
	var profile models.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
		}
		return "", nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if profile.CurrentGroupID == nil {
		return "", []StandingsEntry{}, nil
	}
	groupID := *profile.CurrentGroupID

	if s.Cache != nil {
		entries, err := s.Cache.Top(ctx, groupID)
		if err == nil && len(entries) > 0 {
			return groupID, entries, nil
		}
		if err != nil {
			log.Printf("⚠️ [LEADERBOARD] standings cache read failed for group %s: %v", groupID, err)
		}
	}

	entries, err := s.standingsFromSQL(ctx, groupID)
	if err != nil {
		return "", nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Rebuild(ctx, groupID, entries); err != nil {
			log.Printf("⚠️ [LEADERBOARD] standings cache rebuild failed for group %s: %v", groupID, err)
		}
	}
	return groupID, entries, nil
}

// RebuildGroup recomputes a group's standings from SQL and replaces the
// cached ranking. Used by the periodic refresh job. With no cache configured
// there is nothing to refresh, so the ranking query is skipped entirely.
func (s *LeaderboardService) RebuildGroup(ctx context.Context, groupID string) error {
	if s.Cache == nil {
		return nil
	}
	entries, err := s.standingsFromSQL(ctx, groupID)
	if err != nil {
		return err
	}
	return s.Cache.Rebuild(ctx, groupID, entries)
}

// CurrentGroupIDs lists groups for the running week across all leagues.
func (s *LeaderboardService) CurrentGroupIDs(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).
		Model(&models.LeaderboardGroup{}).
		Where("week_start = ?", models.WeekStartUTC(now)).
		Pluck("id", &ids).Error
	return ids, err
}

// standingsFromSQL ranks group members by XP earned from solves inside the
// group's week. Members with no solves this week appear with zero XP.
func (s *LeaderboardService) standingsFromSQL(ctx context.Context, groupID string) ([]StandingsEntry, error) {
	var group models.LeaderboardGroup
	if err := s.DB.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, fmt.Errorf("load group %s: %w", groupID, err)
	}

	type row struct {
		UserID string
		XP     int64
	}
	var rows []row
	err := s.DB.WithContext(ctx).
		Table("profiles").
		Select("profiles.user_id AS user_id, COALESCE(SUM(problem_solutions.xp_earned), 0) AS xp").
		Joins("LEFT JOIN problem_solutions ON problem_solutions.user_id = profiles.user_id AND problem_solutions.first_solved_at >= ?", group.WeekStart).
		Where("profiles.current_group_id = ?", groupID).
		Group("profiles.user_id").
		Order("xp DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rank group %s: %w", groupID, err)
	}

	entries := make([]StandingsEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, StandingsEntry{Rank: i + 1, UserID: r.UserID, XP: r.XP})
	}
	return entries, nil
}

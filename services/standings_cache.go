package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// standingsTTL keeps abandoned weekly keys from accumulating; two weeks
// covers the running week plus a grace period for end-of-week views.
const standingsTTL = 14 * 24 * time.Hour

func standingsKey(groupID string) string {
	return "standings:group:" + groupID
}

// StandingsCache keeps per-group weekly rankings in a Redis sorted set keyed
// by group id, member = user id, score = weekly XP.
type StandingsCache struct {
	RDB *redis.Client
}

func NewStandingsCache(rdb *redis.Client) *StandingsCache {
	return &StandingsCache{RDB: rdb}
}

// RecordSolve adds the solve's XP to the user's weekly score.
func (c *StandingsCache) RecordSolve(ctx context.Context, groupID, userID string, xp int) error {
	key := standingsKey(groupID)
	pipe := c.RDB.TxPipeline()
	pipe.ZIncrBy(ctx, key, float64(xp), userID)
	pipe.Expire(ctx, key, standingsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record solve in %s: %w", key, err)
	}
	return nil
}

// Top returns the group ranking, best first. An empty slice with no error
// means the key is absent and the caller should fall back to SQL.
func (c *StandingsCache) Top(ctx context.Context, groupID string) ([]StandingsEntry, error) {
	members, err := c.RDB.ZRevRangeWithScores(ctx, standingsKey(groupID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read standings for group %s: %w", groupID, err)
	}
	entries := make([]StandingsEntry, 0, len(members))
	for i, m := range members {
		userID, _ := m.Member.(string)
		entries = append(entries, StandingsEntry{
			Rank:   i + 1,
			UserID: userID,
			XP:     int64(m.Score),
		})
	}
	return entries, nil
}

// Rebuild atomically replaces the cached ranking with a freshly computed one.
func (c *StandingsCache) Rebuild(ctx context.Context, groupID string, entries []StandingsEntry) error {
	key := standingsKey(groupID)
	pipe := c.RDB.TxPipeline()
	pipe.Del(ctx, key)
	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: float64(e.XP), Member: e.UserID})
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, standingsTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuild standings for group %s: %w", key, err)
	}
	return nil
}

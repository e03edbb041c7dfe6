package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartStandingsScheduler periodically rebuilds the cached rankings for every
// current-week group, picking up anything the per-solve increments missed
// (restarts, cache evictions, direct DB edits).
func (s *LeaderboardService) StartStandingsScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 5 minutes: refresh current-week group standings
	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			ids, err := s.CurrentGroupIDs(ctx, time.Now())
			if err != nil {
				log.Printf("[Scheduler] DB error listing groups: %v", err)
				return
			}

			for _, id := range ids {
				if err := s.RebuildGroup(ctx, id); err != nil {
					log.Printf("[Scheduler] Failed to rebuild standings for group %s: %v", id, err)
				}
			}
			if len(ids) > 0 {
				log.Printf("✅ Rebuilt standings for %d groups", len(ids))
			}
		}),
	)
}

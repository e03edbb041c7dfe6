package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codequest/models"
)

func TestAssignGroupFillsThenOverflows(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := &LeaderboardService{Capacity: 30}
	now := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC) // a Wednesday

	// 31 users in the same league and week: exactly 2 groups, the second
	// holding exactly 1 member.
	for i := 0; i < 31; i++ {
		userID := fmt.Sprintf("user-%02d", i)
		profile := &models.Profile{ID: "prof-" + userID, UserID: userID, League: models.LeagueBronze}
		store.profiles[userID] = profile

		groupID, err := svc.AssignGroup(store, profile, now)
		if err != nil {
			t.Fatalf("AssignGroup(%s): %v", userID, err)
		}
		if groupID == "" {
			t.Fatalf("AssignGroup(%s) returned empty group id", userID)
		}
	}

	if len(store.groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(store.groups))
	}

	counts := make([]int, 0, 2)
	for _, g := range store.groups {
		counts = append(counts, g.MemberCount)
		if g.MemberCount > g.Capacity {
			t.Errorf("group %s exceeded capacity: %d > %d", g.ID, g.MemberCount, g.Capacity)
		}
		if !g.WeekStart.Equal(models.WeekStartUTC(now)) {
			t.Errorf("group %s has weekStart %v", g.ID, g.WeekStart)
		}
	}
	if !(counts[0] == 30 && counts[1] == 1) && !(counts[0] == 1 && counts[1] == 30) {
		t.Errorf("member counts = %v, want [30 1]", counts)
	}
}

func TestAssignGroupSameWeekIsNoop(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := &LeaderboardService{Capacity: 30}
	now := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)

	profile := &models.Profile{ID: "prof-1", UserID: "u1", League: models.LeagueSilver}
	store.profiles["u1"] = profile

	first, err := svc.AssignGroup(store, profile, now)
	if err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	// Later the same week: same group, member count unchanged.
	second, err := svc.AssignGroup(store, profile, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("AssignGroup (repeat): %v", err)
	}
	if second != first {
		t.Errorf("user moved groups within the week: %s -> %s", first, second)
	}
	if store.groups[first].MemberCount != 1 {
		t.Errorf("member count = %d after repeat assignment, want 1", store.groups[first].MemberCount)
	}
}

func TestAssignGroupNewWeekPlacesFresh(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := &LeaderboardService{Capacity: 30}
	now := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)

	profile := &models.Profile{ID: "prof-1", UserID: "u1", League: models.LeagueGold}
	store.profiles["u1"] = profile

	first, err := svc.AssignGroup(store, profile, now)
	if err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	nextWeek := now.AddDate(0, 0, 7)
	second, err := svc.AssignGroup(store, profile, nextWeek)
	if err != nil {
		t.Fatalf("AssignGroup (next week): %v", err)
	}
	if second == first {
		t.Errorf("user kept prior-week group %s", first)
	}
	if got := store.groups[second].WeekStart; !got.Equal(models.WeekStartUTC(nextWeek)) {
		t.Errorf("new group weekStart = %v", got)
	}
	// The old group is abandoned, not cleaned up.
	if _, ok := store.groups[first]; !ok {
		t.Error("prior-week group was deleted")
	}
}

func TestAssignGroupLeagueScoped(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := &LeaderboardService{Capacity: 30}
	now := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)

	bronze := &models.Profile{ID: "prof-1", UserID: "u1", League: models.LeagueBronze}
	gold := &models.Profile{ID: "prof-2", UserID: "u2", League: models.LeagueGold}
	store.profiles["u1"] = bronze
	store.profiles["u2"] = gold

	g1, err := svc.AssignGroup(store, bronze, now)
	if err != nil {
		t.Fatalf("AssignGroup(bronze): %v", err)
	}
	g2, err := svc.AssignGroup(store, gold, now)
	if err != nil {
		t.Fatalf("AssignGroup(gold): %v", err)
	}
	if g1 == g2 {
		t.Error("users from different leagues share a group")
	}
}

// With no cache configured the periodic refresh is a no-op and must not touch
// the database at all; a nil DB here would panic if the ranking query ran.
func TestRebuildGroupNoCacheSkipsQuery(t *testing.T) {
	t.Parallel()

	svc := &LeaderboardService{}
	if err := svc.RebuildGroup(context.Background(), "group-1"); err != nil {
		t.Fatalf("RebuildGroup with no cache: %v", err)
	}
}

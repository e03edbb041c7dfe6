package services

import (
	"testing"
	"time"

	"codequest/models"
)

func testRewards() RewardTable {
	return RewardTable{
		XPByDifficulty: map[models.ProblemDifficulty]int{
			models.DifficultyEasy:   100,
			models.DifficultyMedium: 250,
			models.DifficultyHard:   500,
		},
		StarBenchmark: 1200 * time.Second,
	}
}

func TestStarTierBoundaries(t *testing.T) {
	t.Parallel()

	rewards := testRewards()
	b := rewards.StarBenchmark

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"instant", 0, 3},
		{"exactly half benchmark", b / 2, 3},
		{"just over half benchmark", b/2 + time.Second, 2},
		{"exactly benchmark", b, 2},
		{"just over benchmark", b + time.Second, 1},
		{"very slow", 10 * b, 1},
		{"negative clock skew", -time.Minute, 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rewards.Stars(tt.elapsed); got != tt.want {
				t.Errorf("Stars(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestXPByDifficulty(t *testing.T) {
	t.Parallel()

	rewards := testRewards()
	tests := []struct {
		difficulty models.ProblemDifficulty
		want       int
	}{
		{models.DifficultyEasy, 100},
		{models.DifficultyMedium, 250},
		{models.DifficultyHard, 500},
	}
	for _, tt := range tests {
		if got := rewards.XP(tt.difficulty); got != tt.want {
			t.Errorf("XP(%s) = %d, want %d", tt.difficulty, got, tt.want)
		}
	}
}

func TestApplyFirstSolveGrantsOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = &models.Profile{ID: "prof-1", UserID: "u1", League: models.LeagueBronze}
	scoring := NewScoringService(testRewards())
	problem := &models.Problem{ID: "p1", Difficulty: models.DifficultyMedium}
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	xp, stars, err := scoring.Apply(store, "u1", problem, "sub-1", models.StatusAccepted, 300*time.Second, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if xp != 250 || stars != 3 {
		t.Fatalf("first solve granted xp=%d stars=%d, want 250/3", xp, stars)
	}

	sol := store.solutions[solutionKey("u1", "p1")]
	if sol == nil || sol.Status != models.SolutionSolved {
		t.Fatalf("solution not marked solved: %+v", sol)
	}
	if sol.FirstSolvedAt == nil || !sol.FirstSolvedAt.Equal(now) {
		t.Errorf("firstSolvedAt = %v, want %v", sol.FirstSolvedAt, now)
	}
	if sol.BestSubmissionID == nil || *sol.BestSubmissionID != "sub-1" {
		t.Errorf("bestSubmissionID = %v, want sub-1", sol.BestSubmissionID)
	}

	// Second accepted run: only lastAttemptedAt moves.
	later := now.Add(time.Hour)
	xp, stars, err = scoring.Apply(store, "u1", problem, "sub-2", models.StatusAccepted, 10*time.Second, later)
	if err != nil {
		t.Fatalf("Apply (resubmit): %v", err)
	}
	if xp != 0 || stars != 0 {
		t.Errorf("resubmission granted xp=%d stars=%d, want 0/0", xp, stars)
	}

	sol = store.solutions[solutionKey("u1", "p1")]
	if !sol.FirstSolvedAt.Equal(now) {
		t.Errorf("firstSolvedAt changed on resubmission: %v", sol.FirstSolvedAt)
	}
	if *sol.BestSubmissionID != "sub-1" {
		t.Errorf("bestSubmissionID changed on resubmission: %v", *sol.BestSubmissionID)
	}
	if sol.XPEarned != 250 || sol.StarsEarned != 3 {
		t.Errorf("frozen rewards changed: xp=%d stars=%d", sol.XPEarned, sol.StarsEarned)
	}
	if !sol.LastAttemptedAt.Equal(later) {
		t.Errorf("lastAttemptedAt = %v, want %v", sol.LastAttemptedAt, later)
	}

	if p := store.profiles["u1"]; p.XP != 250 || p.Stars != 3 {
		t.Errorf("profile counters xp=%d stars=%d, want 250/3", p.XP, p.Stars)
	}
}

func TestApplyFailedAttemptTracksWithoutReward(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = &models.Profile{ID: "prof-1", UserID: "u1", League: models.LeagueBronze}
	scoring := NewScoringService(testRewards())
	problem := &models.Problem{ID: "p1", Difficulty: models.DifficultyEasy}
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	xp, stars, err := scoring.Apply(store, "u1", problem, "sub-1", models.StatusWrongAnswer, time.Minute, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if xp != 0 || stars != 0 {
		t.Errorf("failed attempt granted xp=%d stars=%d", xp, stars)
	}

	sol := store.solutions[solutionKey("u1", "p1")]
	if sol == nil {
		t.Fatal("no solution row created for failed attempt")
	}
	if sol.Status != models.SolutionAttempted {
		t.Errorf("solution status = %s, want Attempted", sol.Status)
	}
	if sol.FirstSolvedAt != nil {
		t.Errorf("firstSolvedAt set on failed attempt: %v", sol.FirstSolvedAt)
	}
	if !sol.FirstAttemptedAt.Equal(now) {
		t.Errorf("firstAttemptedAt = %v, want %v", sol.FirstAttemptedAt, now)
	}
	if p := store.profiles["u1"]; p.XP != 0 || p.Stars != 0 {
		t.Errorf("profile mutated on failed attempt: xp=%d stars=%d", p.XP, p.Stars)
	}
}

package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"codequest/models"

	"github.com/google/uuid"
)

// RewardTable holds the reward economy as explicit lookup data, injected into
// the scoring service so it can be audited and tuned without touching control
// flow. Extend the XP table by adding rows, never by formula.
type RewardTable struct {
	XPByDifficulty map[models.ProblemDifficulty]int

	// StarBenchmark is B in the star tiers: elapsed <= B/2 earns 3 stars,
	// elapsed <= B earns 2, anything slower earns 1. Boundaries are inclusive
	// on the faster tier.
	StarBenchmark time.Duration
}

func DefaultRewardTable() RewardTable {
	benchmark := 1200 * time.Second
	if v, err := strconv.Atoi(os.Getenv("STAR_BENCHMARK_SECONDS")); err == nil && v > 0 {
		benchmark = time.Duration(v) * time.Second
	}
	return RewardTable{
		XPByDifficulty: map[models.ProblemDifficulty]int{
			models.DifficultyEasy:   100,
			models.DifficultyMedium: 250,
			models.DifficultyHard:   500,
		},
		StarBenchmark: benchmark,
	}
}

func (t RewardTable) XP(d models.ProblemDifficulty) int {
	return t.XPByDifficulty[d]
}

func (t RewardTable) Stars(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed <= t.StarBenchmark/2:
		return 3
	case elapsed <= t.StarBenchmark:
		return 2
	default:
		return 1
	}
}

// ScoringService decides reward issuance. Rewards are granted exactly once
// per (user, problem): only an Accepted run with no prior Solved solution
// qualifies. Everything else just advances LastAttemptedAt.
type ScoringService struct {
	Rewards RewardTable
}

func NewScoringService(rewards RewardTable) *ScoringService {
	return &ScoringService{Rewards: rewards}
}

// Apply upserts the ProblemSolution for this attempt and, on a qualifying
// first solve, freezes the reward fields and bumps the profile counters.
// Returns the XP and stars granted by this attempt (zero when not a
// qualifying first solve). Must run inside the grading transaction; the
// row lock on the solution plus its (user, problem) unique index is what
// keeps two concurrent first solves from both being rewarded.
func (s *ScoringService) Apply(tx GradingTx, userID string, problem *models.Problem, submissionID string, status models.SubmissionStatus, elapsed time.Duration, now time.Time) (int, int, error) {
	sol, err := tx.SolutionForUpdate(userID, problem.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("load solution: %w", err)
	}
	if sol == nil {
		sol = &models.ProblemSolution{
			ID:               uuid.NewString(),
			UserID:           userID,
			ProblemID:        problem.ID,
			Status:           models.SolutionAttempted,
			FirstAttemptedAt: now,
		}
	}
	sol.LastAttemptedAt = now

	xp, stars := 0, 0
	if status == models.StatusAccepted && sol.Status != models.SolutionSolved {
		xp = s.Rewards.XP(problem.Difficulty)
		stars = s.Rewards.Stars(elapsed)

		solvedAt := now
		sol.Status = models.SolutionSolved
		sol.FirstSolvedAt = &solvedAt
		sol.BestSubmissionID = &submissionID
		sol.XPEarned = xp
		sol.StarsEarned = stars

		if err := tx.AddProfileScores(userID, int64(xp), stars); err != nil {
			return 0, 0, fmt.Errorf("increment profile scores: %w", err)
		}
		log.Printf("[SCORING] first solve: user=%s problem=%s xp=%d stars=%d", userID, problem.ID, xp, stars)
	}

	if err := tx.SaveSolution(sol); err != nil {
		return 0, 0, fmt.Errorf("save solution: %w", err)
	}
	return xp, stars, nil
}

package models

import "time"

type SolutionStatus string

const (
	SolutionAttempted SolutionStatus = "Attempted"
	SolutionSolved    SolutionStatus = "Solved"
)

// ProblemSolution is the durable best-known state for one (user, problem)
// pair. The uniqueIndex is what keeps two concurrent "first solves" from both
// landing. Once Status reaches Solved, FirstSolvedAt, StarsEarned and
// XPEarned are frozen; later attempts only advance LastAttemptedAt.
type ProblemSolution struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string         `gorm:"uniqueIndex:idx_solution_user_problem;not null" json:"user_id"`
	ProblemID string         `gorm:"uniqueIndex:idx_solution_user_problem;not null" json:"problem_id"`
	Status    SolutionStatus `gorm:"type:varchar(16);not null;default:'Attempted'" json:"status"`

	FirstAttemptedAt time.Time  `json:"first_attempted_at"`
	LastAttemptedAt  time.Time  `json:"last_attempted_at"`
	FirstSolvedAt    *time.Time `json:"first_solved_at,omitempty"`

	// BestSubmissionID references the first accepted submission.
	BestSubmissionID *string `gorm:"type:uuid" json:"best_submission_id,omitempty"`

	StarsEarned int `gorm:"default:0" json:"stars_earned"`
	XPEarned    int `gorm:"default:0" json:"xp_earned"`
}

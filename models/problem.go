package models

import (
	"time"
)

type ProblemDifficulty string
type ProblemStatus string
type ExecutionStrategy string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"

	ProblemStatusDraft     ProblemStatus = "draft"
	ProblemStatusPublished ProblemStatus = "published"

	// StrategyRawStdin sends the user's code unchanged and feeds each test
	// case's input over stdin. StrategyDriverCode wraps the user's code in the
	// problem's driver template before sending; no stdin is used.
	StrategyRawStdin   ExecutionStrategy = "RAW_STDIN"
	StrategyDriverCode ExecutionStrategy = "DRIVER_CODE"
)

// Problem is a coding challenge users submit solutions against.
type Problem struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string            `gorm:"not null" json:"title"`
	Slug        string            `gorm:"uniqueIndex;not null" json:"slug"`
	Description string            `gorm:"type:text" json:"description"`
	Difficulty  ProblemDifficulty `gorm:"type:varchar(16);not null" json:"difficulty"`
	Status      ProblemStatus     `gorm:"type:varchar(16);default:'draft'" json:"status"`
	Strategy    ExecutionStrategy `gorm:"type:varchar(16);not null;default:'RAW_STDIN'" json:"strategy"`

	// DriverTemplate wraps user code for DRIVER_CODE problems. Must contain
	// the user-code placeholder; the input placeholder is optional.
	DriverTemplate *string `gorm:"type:text" json:"driver_template,omitempty"`

	// CPUTimeLimitSec is forwarded to the judge per execution.
	CPUTimeLimitSec float64 `gorm:"default:2" json:"cpu_time_limit_sec"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	TestCases []TestCase `gorm:"foreignKey:ProblemID;constraint:OnDelete:CASCADE" json:"test_cases,omitempty"`
}

// TestCase is one input/expected-output pair. Immutable once the problem is
// published; SortOrder fixes the grading order.
type TestCase struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ProblemID      string    `gorm:"index;not null" json:"problem_id"`
	SortOrder      int       `gorm:"not null" json:"sort_order"`
	Input          string    `gorm:"type:text" json:"input"`
	ExpectedOutput string    `gorm:"type:text" json:"expected_output"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the normalized verdict enum. Judge responses are mapped
// into this set as early as possible; nothing downstream looks at the judge's
// raw status codes or description strings.
type SubmissionStatus string

const (
	StatusAccepted          SubmissionStatus = "Accepted"
	StatusWrongAnswer       SubmissionStatus = "WrongAnswer"
	StatusTimeLimitExceeded SubmissionStatus = "TimeLimitExceeded"
	StatusCompilationError  SubmissionStatus = "CompilationError"
	StatusRuntimeError      SubmissionStatus = "RuntimeError"
	StatusInternalError     SubmissionStatus = "InternalError"
)

// Submission is one grading attempt. Append-only: rows are written once with
// their final verdict and never updated.
type Submission struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"index;not null" json:"user_id"`
	ProblemID string `gorm:"index;not null" json:"problem_id"`
	Code      string `gorm:"type:text" json:"code,omitempty"`
	Language  string `gorm:"size:32;not null" json:"language"`

	Status SubmissionStatus `gorm:"type:varchar(32);not null" json:"status"`

	// Worst case across all executed test cases.
	ExecTimeSec float64 `gorm:"default:0" json:"exec_time_sec"`
	MemoryKB    int     `gorm:"default:0" json:"memory_kb"`

	// CaseStatuses holds the per-test-case verdicts in submission order.
	CaseStatuses datatypes.JSON `json:"case_statuses,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

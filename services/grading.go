package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"codequest/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Judge dispatch modes. Batch submits every case at once and polls; single
// runs cases one by one with wait=true and stops at the first failure.
const (
	JudgeModeBatch  = "batch"
	JudgeModeSingle = "single"
)

// CaseFailure describes the first failing test case, in the shape the client
// renders ("expected X, got Y").
type CaseFailure struct {
	Index          int    `json:"index"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Diagnostic     string `json:"diagnostic,omitempty"`
}

// GradeOutcome is the aggregated view over all per-case verdicts.
type GradeOutcome struct {
	Status       models.SubmissionStatus
	PerCase      []models.SubmissionStatus
	MaxTimeSec   float64
	MaxMemoryKB  int
	FirstFailure *CaseFailure
}

// SubmissionResult is what a grading call hands back to the API layer.
type SubmissionResult struct {
	SubmissionID     string                    `json:"submission_id"`
	Status           models.SubmissionStatus   `json:"status"`
	XPEarned         int                       `json:"xp_earned"`
	StarsEarned      int                       `json:"stars_earned"`
	ExecTimeSec      float64                   `json:"exec_time_sec"`
	MemoryKB         int                       `json:"memory_kb"`
	PerCaseStatuses  []models.SubmissionStatus `json:"per_case_statuses"`
	FirstFailure     *CaseFailure              `json:"first_failure,omitempty"`
	LeaderboardGroup string                    `json:"leaderboard_group,omitempty"`
}

// statusFromVerdict normalizes a judge verdict into the platform enum. Any
// verdict that never arrived, never left the queue, or carries an id outside
// the known table counts as an internal error.
func statusFromVerdict(v Verdict) models.SubmissionStatus {
	if !v.Terminal() {
		return models.StatusInternalError
	}
	switch {
	case v.StatusID == JudgeStatusAccepted:
		return models.StatusAccepted
	case v.StatusID == JudgeStatusWrongAnswer:
		return models.StatusWrongAnswer
	case v.StatusID == JudgeStatusTimeLimit:
		return models.StatusTimeLimitExceeded
	case v.StatusID == JudgeStatusCompilationError:
		return models.StatusCompilationError
	case v.StatusID >= JudgeStatusRuntimeErrorLow && v.StatusID <= JudgeStatusRuntimeErrorHigh:
		return models.StatusRuntimeError
	default:
		return models.StatusInternalError
	}
}

// AggregateVerdicts folds per-case verdicts into one outcome. The overall
// status is the first non-accepted case in test order, Accepted only when
// every case passed. verdicts may be shorter than units when dispatch stopped
// early; the cases that never ran simply don't appear in PerCase.
func AggregateVerdicts(units []ExecutionUnit, verdicts []Verdict) GradeOutcome {
	out := GradeOutcome{
		Status:  models.StatusAccepted,
		PerCase: make([]models.SubmissionStatus, 0, len(verdicts)),
	}

	for i, v := range verdicts {
		st := statusFromVerdict(v)
		out.PerCase = append(out.PerCase, st)

		if v.TimeSec > out.MaxTimeSec {
			out.MaxTimeSec = v.TimeSec
		}
		if v.MemoryKB > out.MaxMemoryKB {
			out.MaxMemoryKB = v.MemoryKB
		}

		if st != models.StatusAccepted && out.FirstFailure == nil {
			out.Status = st
			fail := &CaseFailure{
				Index:        v.Index,
				ActualOutput: v.Stdout,
			}
			if i < len(units) {
				fail.Input = units[i].Stdin
				fail.ExpectedOutput = units[i].ExpectedOutput
			}
			switch {
			case v.CompileOutput != "":
				fail.Diagnostic = v.CompileOutput
			case v.Stderr != "":
				fail.Diagnostic = v.Stderr
			default:
				fail.Diagnostic = v.Message
			}
			out.FirstFailure = fail
		}
	}

	return out
}

// GradingService runs the full pipeline: package code, dispatch to the judge,
// aggregate verdicts, then persist the attempt, rewards and leaderboard
// placement in one transaction.
type GradingService struct {
	Store       GradingStore
	Judge       JudgeDispatcher
	Scoring     *ScoringService
	Leaderboard *LeaderboardService
	Mode        string

	// Now is swappable in tests.
	Now func() time.Time
}

func NewGradingService(store GradingStore, judge JudgeDispatcher, scoring *ScoringService, leaderboard *LeaderboardService, mode string) *GradingService {
	if mode != JudgeModeSingle {
		mode = JudgeModeBatch
	}
	return &GradingService{
		Store:       store,
		Judge:       judge,
		Scoring:     scoring,
		Leaderboard: leaderboard,
		Mode:        mode,
		Now:         time.Now,
	}
}

// GradeSubmission grades one attempt end to end. startedAt is when the user
// opened the problem, reported by the client; it only affects star tiers,
// never the verdict. If the judge cannot produce verdicts nothing is
// persisted and the error is returned as-is for the handler to map.
func (s *GradingService) GradeSubmission(ctx context.Context, userID, problemRef, code, languageSlug string, startedAt time.Time) (*SubmissionResult, error) {
	problem, cases, err := s.Store.ProblemWithCases(ctx, problemRef)
	if err != nil {
		return nil, err
	}

	lang, err := LookupLanguage(languageSlug)
	if err != nil {
		return nil, err
	}

	units, err := BuildExecutionUnits(problem, cases, code)
	if err != nil {
		return nil, err
	}

	verdicts, err := s.dispatch(ctx, units, lang, problem.CPUTimeLimitSec)
	if err != nil {
		return nil, err
	}

	outcome := AggregateVerdicts(units, verdicts)

	now := s.Now().UTC()
	elapsed := now.Sub(startedAt)
	if startedAt.IsZero() || elapsed < 0 {
		elapsed = 0
	}

	caseJSON, err := json.Marshal(outcome.PerCase)
	if err != nil {
		return nil, fmt.Errorf("encode case statuses: %w", err)
	}

	sub := &models.Submission{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProblemID:    problem.ID,
		Code:         code,
		Language:     lang.Slug,
		Status:       outcome.Status,
		ExecTimeSec:  outcome.MaxTimeSec,
		MemoryKB:     outcome.MaxMemoryKB,
		CaseStatuses: datatypes.JSON(caseJSON),
	}

	var (
		xp, stars int
		groupID   string
	)
	err = s.Store.Grade(ctx, func(tx GradingTx) error {
		if err := tx.CreateSubmission(sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}

		profile, err := tx.ProfileForUpdate(userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if profile == nil {
			profile = &models.Profile{
				ID:     uuid.NewString(),
				UserID: userID,
				League: models.LeagueBronze,
			}
			if err := tx.CreateProfile(profile); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		}

		xp, stars, err = s.Scoring.Apply(tx, userID, problem, sub.ID, outcome.Status, elapsed, now)
		if err != nil {
			return err
		}

		groupID, err = s.Leaderboard.AssignGroup(tx, profile, now)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GRADING] user=%s problem=%s status=%s xp=%d stars=%d", userID, problem.ID, outcome.Status, xp, stars)

	// Cache write after commit; standings can lag, they must never fail a
	// graded submission.
	if xp > 0 && groupID != "" {
		if err := s.Leaderboard.RecordSolve(ctx, groupID, userID, xp); err != nil {
			log.Printf("⚠️ [GRADING] standings cache update failed for group %s: %v", groupID, err)
		}
	}

	return &SubmissionResult{
		SubmissionID:     sub.ID,
		Status:           outcome.Status,
		XPEarned:         xp,
		StarsEarned:      stars,
		ExecTimeSec:      outcome.MaxTimeSec,
		MemoryKB:         outcome.MaxMemoryKB,
		PerCaseStatuses:  outcome.PerCase,
		FirstFailure:     outcome.FirstFailure,
		LeaderboardGroup: groupID,
	}, nil
}

// dispatch routes to the configured judge mode. Single mode trades latency
// for fewer judge slots: cases run one at a time and dispatch stops at the
// first non-accepted verdict.
func (s *GradingService) dispatch(ctx context.Context, units []ExecutionUnit, lang Language, cpuLimitSec float64) ([]Verdict, error) {
	if s.Mode != JudgeModeSingle {
		return s.Judge.RunBatch(ctx, units, lang, cpuLimitSec)
	}

	verdicts := make([]Verdict, 0, len(units))
	for _, unit := range units {
		v, err := s.Judge.RunSingle(ctx, unit, lang, cpuLimitSec)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v)
		if statusFromVerdict(v) != models.StatusAccepted {
			break
		}
	}
	return verdicts, nil
}

package services

import (
	"fmt"
	"strings"

	"codequest/models"
)

// Driver template placeholders. The user-code placeholder is required for
// DRIVER_CODE problems; the input placeholder is optional (some drivers read
// nothing per-case).
const (
	UserCodePlaceholder = "{{USER_CODE}}"
	InputPlaceholder    = "{{TEST_INPUT}}"
)

// ExecutionUnit is one concrete payload for the judge. Units are produced in
// test-case order and Index is how verdicts get mapped back to cases.
type ExecutionUnit struct {
	Index          int
	SourceCode     string
	Stdin          string
	ExpectedOutput string
}

// BuildExecutionUnits turns a problem's test cases plus the user's code into
// the ordered payload list for the dispatcher.
//
// RAW_STDIN: code unchanged, case input on stdin, expected output forwarded so
// the judge can compare server-side.
// DRIVER_CODE: code spliced into the driver template; nothing on stdin.
func BuildExecutionUnits(problem *models.Problem, cases []models.TestCase, userCode string) ([]ExecutionUnit, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("problem %s has no test cases: %w", problem.ID, ErrConfiguration)
	}

	units := make([]ExecutionUnit, 0, len(cases))

	switch problem.Strategy {
	case models.StrategyRawStdin:
		for i, tc := range cases {
			units = append(units, ExecutionUnit{
				Index:          i,
				SourceCode:     userCode,
				Stdin:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}

	case models.StrategyDriverCode:
		if problem.DriverTemplate == nil || strings.TrimSpace(*problem.DriverTemplate) == "" {
			return nil, fmt.Errorf("problem %s uses DRIVER_CODE but has no driver template: %w", problem.ID, ErrConfiguration)
		}
		if !strings.Contains(*problem.DriverTemplate, UserCodePlaceholder) {
			return nil, fmt.Errorf("driver template for problem %s is missing %s: %w", problem.ID, UserCodePlaceholder, ErrConfiguration)
		}
		for i, tc := range cases {
			src := strings.ReplaceAll(*problem.DriverTemplate, UserCodePlaceholder, userCode)
			src = strings.ReplaceAll(src, InputPlaceholder, tc.Input)
			units = append(units, ExecutionUnit{
				Index:          i,
				SourceCode:     src,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}

	default:
		return nil, fmt.Errorf("unknown execution strategy %q: %w", problem.Strategy, ErrConfiguration)
	}

	return units, nil
}

package services

import (
	"encoding/json"
	"testing"
)

func TestLockedAfterPublish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  problemInput
		locked bool
	}{
		{"description only", problemInput{Description: "clearer wording"}, false},
		{"empty edit", problemInput{}, false},
		{"title change", problemInput{Title: "Two Sum II"}, true},
		{"test case replacement", problemInput{TestCases: []testCaseInput{{Input: "1", ExpectedOutput: "1"}}}, true},
		{"driver template", problemInput{DriverTemplate: strPtr("{{USER_CODE}}")}, true},
		{"cpu limit", problemInput{CPUTimeLimitSec: 5}, true},
		{"description plus title", problemInput{Description: "x", Title: "y"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := lockedAfterPublish(tt.input); got != tt.locked {
				t.Errorf("lockedAfterPublish(%+v) = %v, want %v", tt.input, got, tt.locked)
			}
		})
	}
}

// An empty catalog must serialize as [], not null.
func TestMinimalProblemsEmptyCatalog(t *testing.T) {
	t.Parallel()

	minimal := toMinimalProblems(nil)
	if minimal == nil {
		t.Fatal("toMinimalProblems(nil) returned nil slice")
	}

	body, err := json.Marshal(minimal)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("empty catalog serialized as %s, want []", body)
	}
}

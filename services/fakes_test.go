package services

import (
	"context"
	"fmt"
	"time"

	"codequest/models"
)

// fakeStore is an in-memory GradingStore/GradingTx for exercising the
// grading pipeline without a database. Grade snapshots state before running
// the closure and restores it on error, mirroring a transaction rollback.
type fakeStore struct {
	problems map[string]*models.Problem
	cases    map[string][]models.TestCase

	submissions []models.Submission
	solutions   map[string]*models.ProblemSolution
	profiles    map[string]*models.Profile
	groups      map[string]*models.LeaderboardGroup
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		problems:  make(map[string]*models.Problem),
		cases:     make(map[string][]models.TestCase),
		solutions: make(map[string]*models.ProblemSolution),
		profiles:  make(map[string]*models.Profile),
		groups:    make(map[string]*models.LeaderboardGroup),
	}
}

func (s *fakeStore) addProblem(p *models.Problem, cases []models.TestCase) {
	s.problems[p.ID] = p
	s.cases[p.ID] = cases
}

func (s *fakeStore) ProblemWithCases(ctx context.Context, idOrSlug string) (*models.Problem, []models.TestCase, error) {
	if p, ok := s.problems[idOrSlug]; ok {
		return p, s.cases[p.ID], nil
	}
	for _, p := range s.problems {
		if p.Slug == idOrSlug {
			return p, s.cases[p.ID], nil
		}
	}
	return nil, nil, ErrProblemNotFound
}

func (s *fakeStore) Grade(ctx context.Context, fn func(tx GradingTx) error) error {
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	submissions []models.Submission
	solutions   map[string]*models.ProblemSolution
	profiles    map[string]*models.Profile
	groups      map[string]*models.LeaderboardGroup
}

func (s *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		submissions: append([]models.Submission(nil), s.submissions...),
		solutions:   make(map[string]*models.ProblemSolution, len(s.solutions)),
		profiles:    make(map[string]*models.Profile, len(s.profiles)),
		groups:      make(map[string]*models.LeaderboardGroup, len(s.groups)),
	}
	for k, v := range s.solutions {
		c := *v
		snap.solutions[k] = &c
	}
	for k, v := range s.profiles {
		c := *v
		snap.profiles[k] = &c
	}
	for k, v := range s.groups {
		c := *v
		snap.groups[k] = &c
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.submissions = snap.submissions
	s.solutions = snap.solutions
	s.profiles = snap.profiles
	s.groups = snap.groups
}

func solutionKey(userID, problemID string) string {
	return userID + "/" + problemID
}

func (s *fakeStore) CreateSubmission(sub *models.Submission) error {
	s.submissions = append(s.submissions, *sub)
	return nil
}

func (s *fakeStore) SolutionForUpdate(userID, problemID string) (*models.ProblemSolution, error) {
	sol, ok := s.solutions[solutionKey(userID, problemID)]
	if !ok {
		return nil, nil
	}
	c := *sol
	return &c, nil
}

func (s *fakeStore) SaveSolution(sol *models.ProblemSolution) error {
	c := *sol
	s.solutions[solutionKey(sol.UserID, sol.ProblemID)] = &c
	return nil
}

func (s *fakeStore) ProfileForUpdate(userID string) (*models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (s *fakeStore) CreateProfile(p *models.Profile) error {
	if _, ok := s.profiles[p.UserID]; ok {
		return fmt.Errorf("profile for %s already exists", p.UserID)
	}
	c := *p
	s.profiles[p.UserID] = &c
	return nil
}

func (s *fakeStore) AddProfileScores(userID string, xp int64, stars int) error {
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("no profile for %s", userID)
	}
	p.XP += xp
	p.Stars += stars
	return nil
}

func (s *fakeStore) Group(id string) (*models.LeaderboardGroup, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (s *fakeStore) GroupsWithCapacity(league string, weekStart time.Time) ([]models.LeaderboardGroup, error) {
	var out []models.LeaderboardGroup
	for _, g := range s.groups {
		if g.League == league && g.WeekStart.Equal(weekStart) && g.MemberCount < g.Capacity {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateGroup(g *models.LeaderboardGroup) error {
	c := *g
	s.groups[g.ID] = &c
	return nil
}

func (s *fakeStore) ClaimGroupSeat(groupID string) (bool, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return false, fmt.Errorf("no group %s", groupID)
	}
	if g.MemberCount >= g.Capacity {
		return false, nil
	}
	g.MemberCount++
	return true, nil
}

func (s *fakeStore) SetCurrentGroup(userID, groupID string) error {
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("no profile for %s", userID)
	}
	p.CurrentGroupID = &groupID
	return nil
}

// fakeJudge serves scripted verdicts. Batch returns them all at once; single
// hands them out one call at a time in order.
type fakeJudge struct {
	verdicts []Verdict
	err      error

	batchCalls  int
	singleCalls int
}

func (j *fakeJudge) RunBatch(ctx context.Context, units []ExecutionUnit, lang Language, cpuLimitSec float64) ([]Verdict, error) {
	j.batchCalls++
	if j.err != nil {
		return nil, j.err
	}
	return j.verdicts, nil
}

func (j *fakeJudge) RunSingle(ctx context.Context, unit ExecutionUnit, lang Language, cpuLimitSec float64) (Verdict, error) {
	if j.err != nil {
		return Verdict{}, j.err
	}
	if j.singleCalls >= len(j.verdicts) {
		return Verdict{}, fmt.Errorf("no scripted verdict for call %d", j.singleCalls)
	}
	v := j.verdicts[j.singleCalls]
	j.singleCalls++
	return v, nil
}

func acceptedVerdicts(n int, timeSec float64, memoryKB int) []Verdict {
	out := make([]Verdict, n)
	for i := range out {
		out[i] = Verdict{
			Index:    i,
			Received: true,
			StatusID: JudgeStatusAccepted,
			TimeSec:  timeSec,
			MemoryKB: memoryKB,
		}
	}
	return out
}

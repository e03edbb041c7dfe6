package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codequest/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GradingTx is the narrow unit-of-work contract the grading pipeline needs:
// insert-only submission creation, conditional solution upsert, profile
// counter increments and find-or-create group placement, all inside one
// commit boundary.
type GradingTx interface {
	CreateSubmission(sub *models.Submission) error

	// SolutionForUpdate returns nil without error when the user has never
	// attempted the problem.
	SolutionForUpdate(userID, problemID string) (*models.ProblemSolution, error)
	SaveSolution(sol *models.ProblemSolution) error

	// ProfileForUpdate returns nil without error when the user has no profile
	// yet.
	ProfileForUpdate(userID string) (*models.Profile, error)
	CreateProfile(p *models.Profile) error
	AddProfileScores(userID string, xp int64, stars int) error

	Group(id string) (*models.LeaderboardGroup, error)
	GroupsWithCapacity(league string, weekStart time.Time) ([]models.LeaderboardGroup, error)
	CreateGroup(g *models.LeaderboardGroup) error

	// ClaimGroupSeat bumps the member count iff a seat is free; false means
	// the group filled up under us and the caller should try elsewhere.
	ClaimGroupSeat(groupID string) (bool, error)
	SetCurrentGroup(userID, groupID string) error
}

// GradingStore is what the grading service persists through.
type GradingStore interface {
	ProblemWithCases(ctx context.Context, idOrSlug string) (*models.Problem, []models.TestCase, error)
	Grade(ctx context.Context, fn func(tx GradingTx) error) error
}

// GormGradingStore backs GradingStore with Postgres via GORM.
type GormGradingStore struct {
	DB *gorm.DB
}

func NewGormGradingStore(db *gorm.DB) *GormGradingStore {
	return &GormGradingStore{DB: db}
}

func (s *GormGradingStore) ProblemWithCases(ctx context.Context, idOrSlug string) (*models.Problem, []models.TestCase, error) {
	var problem models.Problem
	err := s.DB.WithContext(ctx).
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&problem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProblemNotFound
		}
		return nil, nil, fmt.Errorf("load problem %s: %w", idOrSlug, err)
	}

	var cases []models.TestCase
	if err := s.DB.WithContext(ctx).
		Where("problem_id = ?", problem.ID).
		Order("sort_order ASC").
		Find(&cases).Error; err != nil {
		return nil, nil, fmt.Errorf("load test cases for %s: %w", problem.ID, err)
	}
	return &problem, cases, nil
}

func (s *GormGradingStore) Grade(ctx context.Context, fn func(tx GradingTx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormGradingTx{tx: tx})
	})
}

type gormGradingTx struct {
	tx *gorm.DB
}

func (g *gormGradingTx) CreateSubmission(sub *models.Submission) error {
	return g.tx.Create(sub).Error
}

func (g *gormGradingTx) SolutionForUpdate(userID, problemID string) (*models.ProblemSolution, error) {
	var sol models.ProblemSolution
	err := g.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		First(&sol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sol, nil
}

func (g *gormGradingTx) SaveSolution(sol *models.ProblemSolution) error {
	return g.tx.Save(sol).Error
}

func (g *gormGradingTx) ProfileForUpdate(userID string) (*models.Profile, error) {
	var prof models.Profile
	err := g.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

func (g *gormGradingTx) CreateProfile(p *models.Profile) error {
	return g.tx.Create(p).Error
}

func (g *gormGradingTx) AddProfileScores(userID string, xp int64, stars int) error {
	return g.tx.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"xp":    gorm.Expr("xp + ?", xp),
			"stars": gorm.Expr("stars + ?", stars),
		}).Error
}

func (g *gormGradingTx) Group(id string) (*models.LeaderboardGroup, error) {
	var group models.LeaderboardGroup
	err := g.tx.Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *gormGradingTx) GroupsWithCapacity(league string, weekStart time.Time) ([]models.LeaderboardGroup, error) {
	var groups []models.LeaderboardGroup
	err := g.tx.
		Where("league = ? AND week_start = ? AND member_count < capacity", league, weekStart).
		Order("created_at ASC").
		Find(&groups).Error
	return groups, err
}

func (g *gormGradingTx) CreateGroup(group *models.LeaderboardGroup) error {
	return g.tx.Create(group).Error
}

func (g *gormGradingTx) ClaimGroupSeat(groupID string) (bool, error) {
	res := g.tx.Model(&models.LeaderboardGroup{}).
		Where("id = ? AND member_count < capacity", groupID).
		Update("member_count", gorm.Expr("member_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *gormGradingTx) SetCurrentGroup(userID, groupID string) error {
	return g.tx.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("current_group_id", groupID).Error
}

package services

import (
	"errors"
	"log"

	"codequest/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ProblemService struct {
	DB *gorm.DB
}

func NewProblemService(db *gorm.DB) *ProblemService {
	return &ProblemService{DB: db}
}

// MinimalProblem struct for lightweight listing
type MinimalProblem struct {
	ID         string                   `json:"id"`
	Title      string                   `json:"title"`
	Slug       string                   `json:"slug"`
	Difficulty models.ProblemDifficulty `json:"difficulty"`
}

type testCaseInput struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type problemInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Difficulty      string          `json:"difficulty"`
	Strategy        string          `json:"strategy"`
	DriverTemplate  *string         `json:"driver_template,omitempty"`
	CPUTimeLimitSec float64         `json:"cpu_time_limit_sec,omitempty"`
	TestCases       []testCaseInput `json:"test_cases"`
}

// CreateProblem creates a new **draft** problem with its test cases.
func (s *ProblemService) CreateProblem(c *fiber.Ctx) error {
	var input problemInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	difficulty := models.ProblemDifficulty(input.Difficulty)
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid difficulty (use: Easy, Medium, Hard)"})
	}

	strategy := models.ExecutionStrategy(input.Strategy)
	switch strategy {
	case models.StrategyRawStdin, models.StrategyDriverCode:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid strategy (use: RAW_STDIN, DRIVER_CODE)"})
	}
	if strategy == models.StrategyDriverCode && input.DriverTemplate == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "driver_template required for DRIVER_CODE strategy"})
	}

	if len(input.TestCases) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least one test case is required"})
	}

	problem := &models.Problem{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Slug:           slug.Make(input.Title),
		Description:    input.Description,
		Difficulty:     difficulty,
		Status:         models.ProblemStatusDraft,
		Strategy:       strategy,
		DriverTemplate: input.DriverTemplate,
	}
	if input.CPUTimeLimitSec > 0 {
		problem.CPUTimeLimitSec = input.CPUTimeLimitSec
	}

	cases := make([]models.TestCase, 0, len(input.TestCases))
	for i, tc := range input.TestCases {
		cases = append(cases, models.TestCase{
			ID:             uuid.NewString(),
			ProblemID:      problem.ID,
			SortOrder:      i,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(problem).Error; err != nil {
			return err
		}
		return tx.Create(&cases).Error
	})
	if err != nil {
		log.Printf("DB error creating problem: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create problem"})
	}

	return c.Status(fiber.StatusCreated).JSON(problem)
}

// GetMinimalProblems returns a lightweight published-problem list
func (s *ProblemService) GetMinimalProblems(c *fiber.Ctx) error {
	var problems []models.Problem
	if err := s.DB.Select("id, title, slug, difficulty").
		Where("status = ?", models.ProblemStatusPublished).
		Order("created_at ASC").
		Find(&problems).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch problems"})
	}

	return c.JSON(toMinimalProblems(problems))
}

// toMinimalProblems never returns nil so an empty catalog serializes as [].
func toMinimalProblems(problems []models.Problem) []MinimalProblem {
	minimal := make([]MinimalProblem, 0, len(problems))
	for _, p := range problems {
		minimal = append(minimal, MinimalProblem{
			ID:         p.ID,
			Title:      p.Title,
			Slug:       p.Slug,
			Difficulty: p.Difficulty,
		})
	}
	return minimal
}

// GetProblemBySlug returns a single published problem without its expected
// outputs; only the first test case's input is exposed as a sample.
func (s *ProblemService) GetProblemBySlug(c *fiber.Ctx) error {
	ref := c.Params("slug")

	var problem models.Problem
	if err := s.DB.Where("(id = ? OR slug = ?) AND status = ?", ref, ref, models.ProblemStatusPublished).
		First(&problem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "problem not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var sample models.TestCase
	sampleInput := ""
	if err := s.DB.Where("problem_id = ?", problem.ID).
		Order("sort_order ASC").
		First(&sample).Error; err == nil {
		sampleInput = sample.Input
	}

	return c.JSON(fiber.Map{
		"id":           problem.ID,
		"title":        problem.Title,
		"slug":         problem.Slug,
		"description":  problem.Description,
		"difficulty":   problem.Difficulty,
		"strategy":     problem.Strategy,
		"sample_input": sampleInput,
	})
}

// PublishProblem flips a draft to published. Test cases become immutable from
// here on; there is no unpublish.
func (s *ProblemService) PublishProblem(c *fiber.Ctx) error {
	id := c.Params("id")

	var problem models.Problem
	if err := s.DB.First(&problem, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "problem not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if problem.Status == models.ProblemStatusPublished {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "problem is already published"})
	}

	var caseCount int64
	s.DB.Model(&models.TestCase{}).Where("problem_id = ?", id).Count(&caseCount)
	if caseCount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot publish problem with no test cases"})
	}

	problem.Status = models.ProblemStatusPublished
	if err := s.DB.Save(&problem).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to publish problem"})
	}

	log.Printf("✅ Published problem: %s", problem.Title)
	return c.JSON(problem)
}

// lockedAfterPublish reports whether the edit touches fields frozen once a
// problem is published: test cases, the title (its slug backs stable links),
// the driver template, and the CPU limit. Only the description stays open.
func lockedAfterPublish(input problemInput) bool {
	return len(input.TestCases) > 0 ||
		input.Title != "" ||
		input.DriverTemplate != nil ||
		input.CPUTimeLimitSec > 0
}

// UpdateProblem edits a draft problem. Once published, only the description
// can still change; everything grading depends on is immutable.
func (s *ProblemService) UpdateProblem(c *fiber.Ctx) error {
	id := c.Params("id")

	var problem models.Problem
	if err := s.DB.First(&problem, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "problem not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var input problemInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if problem.Status == models.ProblemStatusPublished && lockedAfterPublish(input) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only the description can be edited once published"})
	}

	if input.Title != "" {
		problem.Title = input.Title
		problem.Slug = slug.Make(input.Title)
	}
	if input.Description != "" {
		problem.Description = input.Description
	}
	if input.DriverTemplate != nil {
		problem.DriverTemplate = input.DriverTemplate
	}
	if input.CPUTimeLimitSec > 0 {
		problem.CPUTimeLimitSec = input.CPUTimeLimitSec
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if len(input.TestCases) > 0 {
			if err := tx.Where("problem_id = ?", problem.ID).Delete(&models.TestCase{}).Error; err != nil {
				return err
			}
			cases := make([]models.TestCase, 0, len(input.TestCases))
			for i, tc := range input.TestCases {
				cases = append(cases, models.TestCase{
					ID:             uuid.NewString(),
					ProblemID:      problem.ID,
					SortOrder:      i,
					Input:          tc.Input,
					ExpectedOutput: tc.ExpectedOutput,
				})
			}
			if err := tx.Create(&cases).Error; err != nil {
				return err
			}
		}
		return tx.Save(&problem).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update transaction failed"})
	}

	return c.JSON(problem)
}

// GetSupportedLanguages returns the language catalog (active entries only).
func (s *ProblemService) GetSupportedLanguages(c *fiber.Ctx) error {
	langs := make([]Language, 0, len(SupportedLanguages))
	for _, l := range SupportedLanguages {
		if l.Active {
			langs = append(langs, l)
		}
	}
	return c.JSON(langs)
}

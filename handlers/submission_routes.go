// handlers/submission_routes.go
package handlers

import (
	"strconv"
	"time"

	"codequest/middleware"
	"codequest/models"
	"codequest/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSubmissionRoutes(app *fiber.App, gradingService *services.GradingService, db *gorm.DB) {
	// 🔐 All submission routes require user context
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/submissions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ProblemID string `json:"problem_id"`
			Language  string `json:"language"`
			Code      string `json:"code"`
			StartedAt string `json:"started_at,omitempty"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.ProblemID == "" || req.Language == "" || req.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "problem_id, language and code are required"})
		}

		// Client-reported challenge start; only affects star tiers.
		var startedAt time.Time
		if req.StartedAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.StartedAt)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid started_at — use RFC3339 (e.g., 2025-12-31T23:00:00Z)",
				})
			}
			startedAt = parsed
		}

		result, err := gradingService.GradeSubmission(c.Context(), userID, req.ProblemID, req.Code, req.Language, startedAt)
		if err != nil {
			return c.Status(services.HTTPStatusFromError(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	secured.Get("/submissions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		if page < 1 {
			page = 1
		}
		if size < 1 || size > 100 {
			size = 20
		}

		query := db.Where("user_id = ?", userID)
		if problemID := c.Query("problem_id"); problemID != "" {
			query = query.Where("problem_id = ?", problemID)
		}

		var submissions []models.Submission
		if err := query.
			Select("id, user_id, problem_id, language, status, exec_time_sec, memory_kb, created_at").
			Order("created_at DESC").
			Offset((page - 1) * size).
			Limit(size).
			Find(&submissions).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
		}
		return c.JSON(submissions)
	})

	secured.Get("/submissions/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var sub models.Submission
		if err := db.Where("id = ? AND user_id = ?", c.Params("id"), userID).First(&sub).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(sub)
	})
}

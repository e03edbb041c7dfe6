// handlers/leaderboard_routes.go
package handlers

import (
	"errors"

	"codequest/middleware"
	"codequest/models"
	"codequest/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService, db *gorm.DB) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/leaderboard/group", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		groupID, entries, err := leaderboardService.GroupStandings(c.Context(), userID)
		if err != nil {
			// The service wraps its errors, so match the sentinel, never ==.
			if errors.Is(err, services.ErrProfileNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "profile not found — submit a solution first"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get standings",
			})
		}

		return c.JSON(fiber.Map{
			"group_id":  groupID,
			"standings": entries,
		})
	})

	secured.Get("/user/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var profile models.Profile
		if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "profile not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching profile"})
		}

		var solvedCount int64
		db.Model(&models.ProblemSolution{}).
			Where("user_id = ? AND status = ?", userID, models.SolutionSolved).
			Count(&solvedCount)

		var attemptedCount int64
		db.Model(&models.ProblemSolution{}).
			Where("user_id = ?", userID).
			Count(&attemptedCount)

		return c.JSON(fiber.Map{
			"id":                 profile.ID,
			"user_id":            profile.UserID,
			"xp":                 profile.XP,
			"stars":              profile.Stars,
			"league":             profile.League,
			"current_group_id":   profile.CurrentGroupID,
			"problems_solved":    solvedCount,
			"problems_attempted": attemptedCount,
		})
	})
}

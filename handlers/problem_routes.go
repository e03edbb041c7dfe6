// handlers/problem_routes.go
package handlers

import (
	"codequest/middleware"
	"codequest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProblemRoutes(app *fiber.App, problemService *services.ProblemService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/problems", problemService.GetMinimalProblems)
	app.Get("/problems/:slug", problemService.GetProblemBySlug)
	app.Get("/languages", problemService.GetSupportedLanguages)

	// 🔐 Secured authoring routes — require user context, enforced via middleware
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/problems", problemService.CreateProblem)
	secured.Put("/problems/:id", problemService.UpdateProblem)
	secured.Patch("/problems/:id", problemService.UpdateProblem)
	secured.Post("/problems/:id/publish", problemService.PublishProblem)
}

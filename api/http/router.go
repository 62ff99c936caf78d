package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/careerfair/resumebank/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, auth *handlers.AuthHandler, health *handlers.HealthHandler, resumes *handlers.ResumesHandler, authMW fiber.Handler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)

	rg := v1.Group("/resumes")
	// Public read surface
	rg.Get("/search", resumes.Search)
	rg.Get("/filters", resumes.Filters)
	rg.Get("/:id/file", resumes.File)

	// Mutations require an authenticated principal
	rg.Post("/", authMW, resumes.Upload)
	rg.Put("/:id", authMW, resumes.Update)
	rg.Delete("/all/delete", authMW, resumes.DeleteAll)
	rg.Delete("/:id", authMW, resumes.Delete)

	// Registered after the static segments so "search" and "filters"
	// are not captured as ids.
	rg.Get("/:id", resumes.Get)
}

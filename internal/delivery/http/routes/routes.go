package routes

import (
	"github.com/gofiber/fiber/v3"

	"talent-match/internal/delivery/http/handler"
	"talent-match/internal/ws"
)

type Registry struct {
	health          *handler.HealthHandler
	applicants      *handler.ApplicantHandler
	recommendations *handler.RecommendationHandler
	notify          *ws.Handler
}

func NewRegistry(
	health *handler.HealthHandler,
	applicants *handler.ApplicantHandler,
	recommendations *handler.RecommendationHandler,
	notify *ws.Handler,
) *Registry {
	return &Registry{
		health:          health,
		applicants:      applicants,
		recommendations: recommendations,
		notify:          notify,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	app.Get("/ws/notify", r.notify.HandleNotifyWS)
	r.registerAPI(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	applicants := v1.Group("/applicants")
	r.applicants.RegisterRoutes(applicants)
	r.recommendations.RegisterApplicantRoutes(applicants)

	recommendations := v1.Group("/recommendations")
	r.recommendations.RegisterRoutes(recommendations)

	r.health.RegisterStatusRoutes(v1)
}

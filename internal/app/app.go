package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"talent-match/internal/delivery/http/handler"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/delivery/http/routes"
	"talent-match/internal/logger"
	"talent-match/internal/ws"
)

type App struct {
	Fiber *fiber.App
	Hub   *ws.Hub
}

// New builds the HTTP surface on top of an already wired container. The hub
// is returned unstarted; the caller runs it and feeds it relayed events.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:   c.Config.App.AppName,
		BodyLimit: 16 * 1024 * 1024,
	})

	accessMw := middleware.NewAccessLogMiddleware(logger.For("http"))
	errMw := middleware.NewErrorMiddleware()
	f.Use(accessMw.Middleware())
	f.Use(errMw.Middleware())

	hub := ws.NewHub(logger.For("ws"))

	healthHandler := handler.NewHealthHandler(c.DB, c.Cache, c.PipelineStatus)
	applicantHandler := handler.NewApplicantHandler(c.Ingest, c.ParseResults)
	recommendationHandler := handler.NewRecommendationHandler(c.RecommendationUC)
	notifyHandler := ws.NewHandler(hub, logger.For("ws"))

	registry := routes.NewRegistry(healthHandler, applicantHandler, recommendationHandler, notifyHandler)
	registry.Register(f)

	return &App{Fiber: f, Hub: hub}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}

package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"talent-match/internal/pkg/response"
	"talent-match/internal/usecase"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	cache  Pinger
	status usecase.PipelineStatusUsecase
}

func NewHealthHandler(db, cache Pinger, status usecase.PipelineStatusUsecase) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, status: status}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HandleHealth)
}

func (h *HealthHandler) RegisterStatusRoutes(r fiber.Router) {
	r.Get("/pipeline/status", h.HandlePipelineStatus)
}

func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "cache": "ok"}
	healthy := true

	if h.db == nil || h.db.Ping(c.Context()) != nil {
		checks["database"] = "down"
		healthy = false
	}
	if h.cache == nil || h.cache.Ping(c.Context()) != nil {
		// Redis is optional; the pipeline degrades without it.
		checks["cache"] = "down"
	}

	if !healthy {
		return response.Error(c, fiber.StatusServiceUnavailable, "degraded", checks)
	}
	return response.Success(c, fiber.StatusOK, "healthy", checks)
}

func (h *HealthHandler) HandlePipelineStatus(c fiber.Ctx) error {
	st, err := h.status.GetStatus(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, "success", st)
}

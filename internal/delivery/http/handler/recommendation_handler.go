package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/domain/catalog"
	"talent-match/internal/domain/scoring"
	"talent-match/internal/pkg/response"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"
	pkgerrors "talent-match/pkg/errors"
)

type RecommendationHandler struct {
	uc usecase.RecommendationUsecase
}

func NewRecommendationHandler(uc usecase.RecommendationUsecase) *RecommendationHandler {
	return &RecommendationHandler{uc: uc}
}

func (h *RecommendationHandler) RegisterApplicantRoutes(r fiber.Router) {
	r.Get("/:id/recommendations", h.HandleList)
}

func (h *RecommendationHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/:id/status", h.HandleUpdateStatus)
}

var validTierFilter = map[string]bool{
	"": true, scoring.TierHigh: true, scoring.TierMedium: true, scoring.TierLow: true,
}

var validTargetTypeFilter = map[string]bool{
	"": true, string(catalog.TargetJob): true, string(catalog.TargetCollegeProgram): true,
}

func (h *RecommendationHandler) HandleList(c fiber.Ctx) error {
	applicantID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	targetType := c.Query("target_type")
	tier := c.Query("tier")
	if !validTargetTypeFilter[targetType] {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid target_type filter", nil, nil)
	}
	if !validTierFilter[tier] {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid tier filter", nil, nil)
	}

	items, err := h.uc.List(c.Context(), applicantID, targetType, tier)
	if err != nil {
		if errors.Is(err, repository.ErrApplicantNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "applicant not found", nil, err)
		}
		return err
	}

	return response.Success(c, fiber.StatusOK, "success", items)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *RecommendationHandler) HandleUpdateStatus(c fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
	}
	if req.Status == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "status is required", nil, nil)
	}

	rec, err := h.uc.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecommendationNotFound):
			return middleware.NewAppError(fiber.StatusNotFound, "recommendation not found", nil, err)
		case errors.Is(err, pkgerrors.ErrInvalidStatusChange):
			return middleware.NewAppError(fiber.StatusUnprocessableEntity, "invalid status change", nil, err)
		default:
			return err
		}
	}

	return response.Success(c, fiber.StatusOK, "status updated", rec)
}

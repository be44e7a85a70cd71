package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/domain/profile"
	"talent-match/internal/extract"
	"talent-match/internal/pkg/response"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"
	pkgerrors "talent-match/pkg/errors"
)

type ApplicantHandler struct {
	ingest  usecase.IngestUsecase
	results repository.ParseResultRepository
}

func NewApplicantHandler(ingest usecase.IngestUsecase, results repository.ParseResultRepository) *ApplicantHandler {
	return &ApplicantHandler{ingest: ingest, results: results}
}

func (h *ApplicantHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/:id/documents", h.HandleUploadDocument)
	r.Get("/:id/parse-result", h.HandleGetParseResult)
	r.Get("/:id/parse-status", h.HandleGetParseStatus)
}

// HandleUploadDocument accepts a multipart resume upload plus optional
// hints and queues the parse. The response is 202: parsing is async and
// observable via parse-status and the notify socket.
func (h *ApplicantHandler) HandleUploadDocument(c fiber.Ctx) error {
	applicantID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "missing document file", nil, err)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "unreadable upload", nil, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "unreadable upload", nil, err)
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimeFromExtension(fileHeader.Filename)
	}

	hints := profile.Hints{
		Location:    strings.TrimSpace(c.FormValue("location")),
		Preferences: strings.TrimSpace(c.FormValue("preferences")),
	}
	if raw := strings.TrimSpace(c.FormValue("jee_rank")); raw != "" {
		rank, err := strconv.Atoi(raw)
		if err != nil || rank <= 0 {
			return middleware.NewAppError(fiber.StatusBadRequest, "jee_rank must be a positive integer", nil, err)
		}
		hints.JEERank = &rank
	}

	result, err := h.ingest.UploadDocument(c.Context(), applicantID, data, mimeType, hints)
	if err != nil {
		return mapIngestError(err)
	}

	return response.Success(c, fiber.StatusAccepted, "document queued for parsing", result)
}

func (h *ApplicantHandler) HandleGetParseResult(c fiber.Ctx) error {
	applicantID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	pr, err := h.results.GetCurrent(c.Context(), applicantID)
	if err != nil {
		if errors.Is(err, repository.ErrParseResultNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "no parse result yet", nil, err)
		}
		return err
	}

	return response.Success(c, fiber.StatusOK, "success", pr)
}

func (h *ApplicantHandler) HandleGetParseStatus(c fiber.Ctx) error {
	applicantID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	status, err := h.ingest.ParseStatus(c.Context(), applicantID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicantNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "applicant not found", nil, err)
		}
		return err
	}

	return response.Success(c, fiber.StatusOK, "success", fiber.Map{"parse_status": status})
}

func parseUUIDParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+name, nil, err)
	}
	return id, nil
}

func mapIngestError(err error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrUnsupportedMediaType):
		return middleware.NewAppError(fiber.StatusUnsupportedMediaType, "unsupported document type", nil, err)
	case errors.Is(err, pkgerrors.ErrUnreadableDocument):
		return middleware.NewAppError(fiber.StatusBadRequest, "unreadable document", nil, err)
	case errors.Is(err, repository.ErrApplicantNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "applicant not found", nil, err)
	default:
		return err
	}
}

func mimeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extract.MimePDF
	case ".docx":
		return extract.MimeDOCX
	case ".doc":
		return extract.MimeDOC
	case ".txt":
		return extract.MimePlain
	default:
		return "application/octet-stream"
	}
}

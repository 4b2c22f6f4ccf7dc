package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/internal/utils"
)

// ResumeHandler wires resume ranking routes.
type ResumeHandler struct {
	service   service.RankingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewResumeHandler constructs the handler.
func NewResumeHandler(service service.RankingService, validator *validator.Validate, logger zerolog.Logger) *ResumeHandler {
	return &ResumeHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "resume_handler").Logger(),
	}
}

// Register attaches resume endpoints to the router group.
func (h *ResumeHandler) Register(router fiber.Router) {
	router.Post("/rank", h.rank)
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *ResumeHandler) rank(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form required")
	}

	topK, err := parseFormInt(c, "top_k")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "top_k must be an integer")
	}

	payload := dto.RankResumesRequest{
		JobDescriptionID: c.FormValue("job_description_id"),
		JobDescription:   c.FormValue("job_description"),
		TopK:             topK,
	}

	headers := append(form.File["resumes"], form.File["resumes[]"]...)
	files := make([]dto.ResumeUpload, 0, len(headers))
	for _, header := range headers {
		data, err := readFormFile(header)
		if err != nil {
			return internalError(c, h.logger, err)
		}
		files = append(files, dto.ResumeUpload{FileName: header.Filename, Data: data})
	}

	resp, err := h.service.Rank(requestContext(c), actorFromContext(c), payload, files)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.OK(c, resp, "resumes ranked", fiber.Map{
		"total_submitted": resp.TotalSubmitted,
		"total_ranked":    resp.TotalRanked,
		"skipped":         len(resp.Skipped),
	})
}

func (h *ResumeHandler) list(c *fiber.Ctx) error {
	records, err := h.service.List(requestContext(c), actorFromContext(c))
	if err != nil {
		return internalError(c, h.logger, err)
	}

	return utils.OK(c, records, "resumes retrieved", fiber.Map{"count": len(records)})
}

func (h *ResumeHandler) get(c *fiber.Ctx) error {
	record, err := h.service.Get(requestContext(c), actorFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "resume retrieved", record)
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return data, nil
}

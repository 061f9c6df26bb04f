package cases

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/clinisim/simulator-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CaseHandler handles the case catalog and admin case management endpoints
type CaseHandler struct {
	caseService  *services.CaseService
	mediaService *services.MediaService
	validator    *validation.Validator
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *services.CaseService, mediaService *services.MediaService) *CaseHandler {
	return &CaseHandler{
		caseService:  caseService,
		mediaService: mediaService,
		validator:    validation.NewValidator(),
	}
}

// ListCases handles GET /api/v1/cases
// Supports specialty, difficulty, search and pagination query parameters
func (h *CaseHandler) ListCases(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	specialtyID, _ := strconv.ParseUint(c.Query("specialty_id", "0"), 10, 32)

	role, _ := middleware.GetUserRole(c)
	includeUnpublished := role == model.RoleAdmin && c.Query("include_unpublished") == "true"

	items, total, err := h.caseService.ListCases(c.Context(), services.CaseListOptions{
		SpecialtyID:        uint(specialtyID),
		Difficulty:         model.CaseDifficulty(c.Query("difficulty")),
		Search:             c.Query("search"),
		Page:               page,
		Limit:              limit,
		IncludeUnpublished: includeUnpublished,
	})
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Paginated(c, items, response.CalculatePagination(page, limit, total))
}

// GetCase handles GET /api/v1/cases/:id
func (h *CaseHandler) GetCase(c *fiber.Ctx) error {
	caseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}

	role, _ := middleware.GetUserRole(c)
	requirePublished := role != model.RoleAdmin

	item, err := h.caseService.GetCase(c.Context(), uint(caseID), requirePublished)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch case")
	}

	return response.Success(c, item)
}

// CaseRequest is the body for creating or updating a case
type CaseRequest struct {
	SpecialtyID      uint           `json:"specialty_id" validate:"required"`
	Title            string         `json:"title" validate:"required,min=3,max=255"`
	Summary          string         `json:"summary"`
	Difficulty       string         `json:"difficulty" validate:"required"`
	Template         map[string]interface{} `json:"template" validate:"required"`
	EstimatedMinutes int                    `json:"estimated_minutes"`
	Published        bool                   `json:"published"`
}

// CreateCase handles POST /api/v1/cases
func (h *CaseHandler) CreateCase(c *fiber.Ctx) error {
	var req CaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	template, err := templateJSON(req.Template)
	if err != nil {
		return response.BadRequest(c, "Invalid case template")
	}

	item := &model.Case{
		SpecialtyID:      req.SpecialtyID,
		Title:            req.Title,
		Summary:          req.Summary,
		Difficulty:       model.CaseDifficulty(req.Difficulty),
		Template:         template,
		EstimatedMinutes: req.EstimatedMinutes,
		Published:        req.Published,
	}
	if err := h.caseService.CreateCase(c.Context(), item); err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, item)
}

// UpdateCase handles PUT /api/v1/cases/:id
func (h *CaseHandler) UpdateCase(c *fiber.Ctx) error {
	caseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}

	var req CaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	template, err := templateJSON(req.Template)
	if err != nil {
		return response.BadRequest(c, "Invalid case template")
	}

	item, err := h.caseService.UpdateCase(c.Context(), uint(caseID), map[string]interface{}{
		"specialty_id":      req.SpecialtyID,
		"title":             req.Title,
		"summary":           req.Summary,
		"difficulty":        req.Difficulty,
		"template":          template,
		"estimated_minutes": req.EstimatedMinutes,
		"published":         req.Published,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, item)
}

// SetPublished handles PUT /api/v1/cases/:id/publish
func (h *CaseHandler) SetPublished(c *fiber.Ctx) error {
	caseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}

	var req struct {
		Published bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.caseService.SetPublished(c.Context(), uint(caseID), req.Published)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update case")
	}

	return response.Success(c, item)
}

// DeleteCase handles DELETE /api/v1/cases/:id
func (h *CaseHandler) DeleteCase(c *fiber.Ctx) error {
	caseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}

	err = h.caseService.DeleteCase(c.Context(), uint(caseID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete case")
	}

	return response.SuccessWithMessage(c, "Case deleted", nil)
}

// UploadMedia handles POST /api/v1/cases/:id/media
// Accepts a multipart upload with "file" and "kind" fields
func (h *CaseHandler) UploadMedia(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	caseID64, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}
	caseID := uint(caseID64)

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	kind := model.MediaKind(c.FormValue("kind"))

	media, err := h.mediaService.Upload(c.Context(), services.UploadInput{
		Kind:             kind,
		File:             file,
		CaseID:           &caseID,
		UploadedByUserID: user.ID,
	})
	if errors.Is(err, services.ErrStorageUnavailable) {
		return response.ServiceUnavailable(c, "Media storage is not configured")
	}
	if errors.Is(err, services.ErrUnsupportedMedia) {
		return response.BadRequest(c, err.Error())
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to upload media")
	}

	return response.Created(c, media)
}

// DeleteMedia handles DELETE /api/v1/media/:id
func (h *CaseHandler) DeleteMedia(c *fiber.Ctx) error {
	mediaID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid media ID")
	}

	err = h.mediaService.Delete(c.Context(), uint(mediaID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Media not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete media")
	}

	return response.SuccessWithMessage(c, "Media deleted", nil)
}

func templateJSON(template map[string]interface{}) (datatypes.JSON, error) {
	if template == nil {
		return nil, nil
	}
	b, err := json.Marshal(template)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

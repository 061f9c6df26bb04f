package paths

import (
	"context"
	"errors"
	"strconv"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/clinisim/simulator-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PathHandler handles learning path endpoints
type PathHandler struct {
	pathService      *services.PathService
	analyticsService *services.AnalyticsService
	validator        *validation.Validator
}

// NewPathHandler creates a new learning path handler
func NewPathHandler(pathService *services.PathService, analyticsService *services.AnalyticsService) *PathHandler {
	return &PathHandler{
		pathService:      pathService,
		analyticsService: analyticsService,
		validator:        validation.NewValidator(),
	}
}

// ListPaths handles GET /api/v1/paths
func (h *PathHandler) ListPaths(c *fiber.Ctx) error {
	specialtyID, _ := strconv.ParseUint(c.Query("specialty_id", "0"), 10, 32)

	role, _ := middleware.GetUserRole(c)
	includeUnpublished := role == model.RoleAdmin && c.Query("include_unpublished") == "true"

	paths, err := h.pathService.ListPaths(c.Context(), uint(specialtyID), includeUnpublished)
	if err != nil {
		return response.InternalServerError(c, "Failed to list learning paths")
	}

	return response.Success(c, paths)
}

// GetPath handles GET /api/v1/paths/:id
func (h *PathHandler) GetPath(c *fiber.Ctx) error {
	id, err := parsePathID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid path ID")
	}

	path, err := h.pathService.GetPath(c.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Learning path not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch learning path")
	}

	return response.Success(c, path)
}

// PathRequest is the body for creating or updating a learning path
type PathRequest struct {
	SpecialtyID uint                     `json:"specialty_id" validate:"required"`
	Title       string                   `json:"title" validate:"required,min=3,max=255"`
	Description string                   `json:"description"`
	Difficulty  string                   `json:"difficulty" validate:"required"`
	Published   bool                     `json:"published"`
	Steps       []services.PathStepInput `json:"steps" validate:"required,min=1,dive"`
}

// CreatePath handles POST /api/v1/paths
// Educators and admins only
func (h *PathHandler) CreatePath(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.CanAuthorCases() {
		return response.Forbidden(c, "Only educators can create learning paths")
	}

	var req PathRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if !model.IsValidCaseDifficulty(req.Difficulty) {
		return response.BadRequest(c, "Invalid difficulty")
	}

	path := &model.LearningPath{
		SpecialtyID: req.SpecialtyID,
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  model.CaseDifficulty(req.Difficulty),
		CreatedByID: user.ID,
	}
	if err := h.pathService.CreatePath(c.Context(), path, req.Steps); err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, path)
}

// UpdatePath handles PUT /api/v1/paths/:id
func (h *PathHandler) UpdatePath(c *fiber.Ctx) error {
	id, err := parsePathID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid path ID")
	}

	var req PathRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if !model.IsValidCaseDifficulty(req.Difficulty) {
		return response.BadRequest(c, "Invalid difficulty")
	}

	path, err := h.pathService.UpdatePath(c.Context(), id, map[string]interface{}{
		"specialty_id": req.SpecialtyID,
		"title":        req.Title,
		"description":  req.Description,
		"difficulty":   req.Difficulty,
		"published":    req.Published,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Learning path not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update learning path")
	}

	if err := h.pathService.ReplaceSteps(c.Context(), id, req.Steps); err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, path)
}

// DeletePath handles DELETE /api/v1/paths/:id
func (h *PathHandler) DeletePath(c *fiber.Ctx) error {
	id, err := parsePathID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid path ID")
	}

	err = h.pathService.DeletePath(c.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Learning path not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete learning path")
	}

	return response.SuccessWithMessage(c, "Learning path deleted", nil)
}

// Enroll handles POST /api/v1/paths/:id/enroll
func (h *PathHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parsePathID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid path ID")
	}

	err = h.pathService.Enroll(c.Context(), user.ID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Learning path not found")
	}
	if errors.Is(err, services.ErrPathNotPublished) {
		return response.Forbidden(c, "Learning path is not published")
	}
	if errors.Is(err, services.ErrAlreadyEnrolled) {
		return response.Conflict(c, "Already enrolled in this learning path")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to enroll")
	}

	if h.analyticsService != nil {
		ip := c.IP()
		ua := c.Get("User-Agent")
		userID := user.ID
		go func() {
			_ = h.analyticsService.LogActivity(context.Background(), userID, model.ActivityTypePathEnrolled, "path", id, ip, ua)
		}()
	}

	return response.SuccessWithMessage(c, "Enrolled in learning path", nil)
}

// GetProgress handles GET /api/v1/paths/:id/progress
func (h *PathHandler) GetProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parsePathID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid path ID")
	}

	progress, err := h.pathService.Progress(c.Context(), user.ID, id)
	if errors.Is(err, services.ErrNotEnrolled) {
		return response.Forbidden(c, "Not enrolled in this learning path")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Learning path not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to compute progress")
	}

	return response.Success(c, progress)
}

func parsePathID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

package specialty

import (
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

// SpecialtyHandler handles specialty catalog and admin visibility endpoints
type SpecialtyHandler struct {
	specialtyService *services.SpecialtyService
	validator        *validation.Validator
}

// NewSpecialtyHandler creates a new specialty handler
func NewSpecialtyHandler(specialtyService *services.SpecialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{
		specialtyService: specialtyService,
		validator:        validation.NewValidator(),
	}
}

// ListSpecialties handles GET /api/v1/specialties
// Hidden specialties are only included for admins
func (h *SpecialtyHandler) ListSpecialties(c *fiber.Ctx) error {
	role, _ := middleware.GetUserRole(c)
	includeHidden := role == model.RoleAdmin && c.Query("include_hidden") == "true"

	specialties, err := h.specialtyService.ListSpecialties(c.Context(), includeHidden)
	if err != nil {
		return response.InternalServerError(c, "Failed to list specialties")
	}

	return response.Success(c, specialties)
}

// SpecialtyRequest is the body for creating or updating a specialty
type SpecialtyRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Slug      string `json:"slug" validate:"required,min=2,max=100"`
	Visible   *bool  `json:"visible"`
	SortOrder int    `json:"sort_order"`
}

// CreateSpecialty handles POST /api/v1/specialties
func (h *SpecialtyHandler) CreateSpecialty(c *fiber.Ctx) error {
	var req SpecialtyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	specialty := &model.Specialty{
		Name:      req.Name,
		Slug:      req.Slug,
		Visible:   true,
		SortOrder: req.SortOrder,
	}
	if req.Visible != nil {
		specialty.Visible = *req.Visible
	}

	if err := h.specialtyService.CreateSpecialty(c.Context(), specialty); err != nil {
		return response.Conflict(c, "Specialty with this slug already exists")
	}

	return response.Created(c, specialty)
}

// UpdateSpecialty handles PUT /api/v1/specialties/:id
// Visibility changes invalidate the cached visibility map
func (h *SpecialtyHandler) UpdateSpecialty(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid specialty ID")
	}

	var req SpecialtyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{
		"name":       req.Name,
		"slug":       req.Slug,
		"sort_order": req.SortOrder,
	}
	if req.Visible != nil {
		updates["visible"] = *req.Visible
	}

	specialty, err := h.specialtyService.UpdateSpecialty(c.Context(), uint(id), updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Specialty not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update specialty")
	}

	return response.Success(c, specialty)
}

// DeleteSpecialty handles DELETE /api/v1/specialties/:id
func (h *SpecialtyHandler) DeleteSpecialty(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid specialty ID")
	}

	err = h.specialtyService.DeleteSpecialty(c.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Specialty not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete specialty")
	}

	return response.SuccessWithMessage(c, "Specialty deleted", nil)
}

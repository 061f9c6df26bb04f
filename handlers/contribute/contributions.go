package contribute

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

// ContributionHandler handles the case authoring workflow endpoints
type ContributionHandler struct {
	contributionService *services.ContributionService
	mediaService        *services.MediaService
	validator           *validation.Validator
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributionService *services.ContributionService, mediaService *services.MediaService) *ContributionHandler {
	return &ContributionHandler{
		contributionService: contributionService,
		mediaService:        mediaService,
		validator:           validation.NewValidator(),
	}
}

// DraftRequest is the body for creating or updating a contributed case draft
type DraftRequest struct {
	SpecialtyID uint                   `json:"specialty_id" validate:"required"`
	Title       string                 `json:"title" validate:"required,min=3,max=255"`
	Summary     string                 `json:"summary"`
	Difficulty  string                 `json:"difficulty" validate:"required"`
	Template    map[string]interface{} `json:"template" validate:"required"`
}

// CreateDraft handles POST /api/v1/contribute/cases
// Educators and admins only
func (h *ContributionHandler) CreateDraft(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	if !user.CanAuthorCases() {
		return response.Forbidden(c, "Only educators can author cases")
	}

	var req DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if !model.IsValidCaseDifficulty(req.Difficulty) {
		return response.BadRequest(c, "Invalid difficulty")
	}

	template, err := json.Marshal(req.Template)
	if err != nil {
		return response.BadRequest(c, "Invalid case template")
	}

	draft := &model.ContributedCase{
		ContributorID: user.ID,
		SpecialtyID:   req.SpecialtyID,
		Title:         req.Title,
		Summary:       req.Summary,
		Difficulty:    model.CaseDifficulty(req.Difficulty),
		Template:      datatypes.JSON(template),
	}
	if err := h.contributionService.CreateDraft(c.Context(), draft); err != nil {
		return response.InternalServerError(c, "Failed to create draft")
	}

	return response.Created(c, draft)
}

// UpdateDraft handles PUT /api/v1/contribute/cases/:id
// Only the contributor may edit, and only while the case is a draft
func (h *ContributionHandler) UpdateDraft(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid contribution ID")
	}

	var req DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if !model.IsValidCaseDifficulty(req.Difficulty) {
		return response.BadRequest(c, "Invalid difficulty")
	}

	template, err := json.Marshal(req.Template)
	if err != nil {
		return response.BadRequest(c, "Invalid case template")
	}

	draft, err := h.contributionService.UpdateDraft(c.Context(), user.ID, id, map[string]interface{}{
		"specialty_id": req.SpecialtyID,
		"title":        req.Title,
		"summary":      req.Summary,
		"difficulty":   req.Difficulty,
		"template":     datatypes.JSON(template),
	})
	if err != nil {
		return h.workflowError(c, err)
	}

	return response.Success(c, draft)
}

// ListContributions handles GET /api/v1/contribute/cases
// Contributors see their own; admins see all with optional status filter
func (h *ContributionHandler) ListContributions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	status := c.Query("status")

	var contributorID *uint
	if user.Role != model.RoleAdmin {
		contributorID = &user.ID
	}

	items, total, err := h.contributionService.ListContributions(c.Context(), contributorID, status, limit, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to list contributions")
	}

	return response.Success(c, fiber.Map{
		"contributions": items,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// Submit handles POST /api/v1/contribute/cases/:id/submit
func (h *ContributionHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid contribution ID")
	}

	item, err := h.contributionService.Submit(c.Context(), user.ID, id)
	if err != nil {
		return h.workflowError(c, err)
	}

	return response.Success(c, item)
}

// ReviewRequest carries optional reviewer notes
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// StartReview handles POST /api/v1/contribute/cases/:id/review
func (h *ContributionHandler) StartReview(c *fiber.Ctx) error {
	return h.reviewAction(c, func(reviewerID, id uint, notes string) (*model.ContributedCase, error) {
		return h.contributionService.StartReview(c.Context(), reviewerID, id)
	})
}

// Approve handles POST /api/v1/contribute/cases/:id/approve
func (h *ContributionHandler) Approve(c *fiber.Ctx) error {
	return h.reviewAction(c, func(reviewerID, id uint, notes string) (*model.ContributedCase, error) {
		return h.contributionService.Approve(c.Context(), reviewerID, id, notes)
	})
}

// Reject handles POST /api/v1/contribute/cases/:id/reject
func (h *ContributionHandler) Reject(c *fiber.Ctx) error {
	return h.reviewAction(c, func(reviewerID, id uint, notes string) (*model.ContributedCase, error) {
		return h.contributionService.Reject(c.Context(), reviewerID, id, notes)
	})
}

// RequestRevision handles POST /api/v1/contribute/cases/:id/request-revision
func (h *ContributionHandler) RequestRevision(c *fiber.Ctx) error {
	return h.reviewAction(c, func(reviewerID, id uint, notes string) (*model.ContributedCase, error) {
		return h.contributionService.RequestRevision(c.Context(), reviewerID, id, notes)
	})
}

// Publish handles POST /api/v1/contribute/cases/:id/publish
// Promotes an approved contribution into the case catalog
func (h *ContributionHandler) Publish(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid contribution ID")
	}

	published, err := h.contributionService.Publish(c.Context(), user.ID, id)
	if err != nil {
		return h.workflowError(c, err)
	}

	return response.Created(c, published)
}

// UploadMedia handles POST /api/v1/contribute/cases/:id/media
// Attaches a file to a draft contribution
func (h *ContributionHandler) UploadMedia(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid contribution ID")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	media, err := h.mediaService.Upload(c.Context(), services.UploadInput{
		Kind:              model.MediaKind(c.FormValue("kind")),
		File:              file,
		ContributedCaseID: &id,
		UploadedByUserID:  user.ID,
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

func (h *ContributionHandler) reviewAction(c *fiber.Ctx, action func(reviewerID, id uint, notes string) (*model.ContributedCase, error)) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid contribution ID")
	}

	var req ReviewRequest
	_ = c.BodyParser(&req)

	item, err := action(user.ID, id, req.Notes)
	if err != nil {
		return h.workflowError(c, err)
	}

	return response.Success(c, item)
}

func (h *ContributionHandler) workflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Contribution not found")
	case errors.Is(err, services.ErrNotContributor):
		return response.Forbidden(c, "You do not own this contribution")
	case errors.Is(err, services.ErrIllegalTransition):
		return response.Conflict(c, "This action is not allowed in the current status")
	default:
		return response.InternalServerError(c, "Failed to process contribution")
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

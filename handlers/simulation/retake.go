package simulation

import (
	"context"
	"errors"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/clinisim/simulator-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RetakeHandler handles case retake and improvement tracking endpoints
type RetakeHandler struct {
	sessionService   *services.SessionService
	retakeService    *services.RetakeService
	analyticsService *services.AnalyticsService
	validator        *validation.Validator
}

// NewRetakeHandler creates a new retake handler
func NewRetakeHandler(sessionService *services.SessionService, retakeService *services.RetakeService, analyticsService *services.AnalyticsService) *RetakeHandler {
	return &RetakeHandler{
		sessionService:   sessionService,
		retakeService:    retakeService,
		analyticsService: analyticsService,
		validator:        validation.NewValidator(),
	}
}

// StartRetakeRequest is the body for POST /api/v1/simulation/retake/start
type StartRetakeRequest struct {
	CaseID                uint     `json:"case_id" validate:"required"`
	PreviousSessionID     string   `json:"previous_session_id"`
	RetakeReason          string   `json:"retake_reason" validate:"required"`
	ImprovementFocusAreas []string `json:"improvement_focus_areas"`
}

// StartRetake handles POST /api/v1/simulation/retake/start
// Starts a retake session linked to a previous attempt of the same case
func (h *RetakeHandler) StartRetake(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req StartRetakeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if !model.IsValidRetakeReason(req.RetakeReason) {
		return response.BadRequest(c, "Invalid retake reason")
	}

	session, err := h.sessionService.StartSession(c.Context(), services.StartSessionInput{
		UserID:                user.ID,
		CaseID:                req.CaseID,
		PreviousSessionID:     req.PreviousSessionID,
		RetakeReason:          req.RetakeReason,
		ImprovementFocusAreas: req.ImprovementFocusAreas,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case or previous session not found")
	}
	if errors.Is(err, services.ErrCaseNotAvailable) {
		return response.Forbidden(c, "Case is not available")
	}
	if errors.Is(err, services.ErrRetakeLimitReached) {
		return response.Conflict(c, "Retake limit reached for this case")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to start retake session")
	}

	h.logActivity(c, user.ID, session.ID)

	return response.Created(c, session)
}

// GetRetakeSessions handles GET /api/v1/simulation/retake/sessions/:case_id
// Returns the user's full attempt history for a case, with attempt numbers
// and per-attempt metrics
func (h *RetakeHandler) GetRetakeSessions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	caseID, err := parseCaseID(c, "case_id")
	if err != nil {
		return response.BadRequest(c, "Invalid case ID")
	}

	sessions, err := h.sessionService.ListSessionsForCase(c.Context(), user.ID, caseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	return response.Success(c, fiber.Map{
		"case_id":  caseID,
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// CalculateImprovementRequest is the body for POST /api/v1/simulation/retake/calculate-improvement.
// Either both session IDs are given, or a case ID to compare the full history.
type CalculateImprovementRequest struct {
	OriginalSessionID string `json:"original_session_id"`
	RetakeSessionID   string `json:"retake_session_id"`
	CaseID            uint   `json:"case_id"`
}

// CalculateImprovement handles POST /api/v1/simulation/retake/calculate-improvement
// Compares completed attempts and returns the improvement summary: score
// progression, per-criterion deltas and the overall trend
func (h *RetakeHandler) CalculateImprovement(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CalculateImprovementRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var summary *services.ImprovementSummary
	var err error
	switch {
	case req.OriginalSessionID != "" && req.RetakeSessionID != "":
		summary, err = h.retakeService.CompareSessions(c.Context(), user.ID, req.OriginalSessionID, req.RetakeSessionID)
	case req.CaseID != 0:
		summary, err = h.retakeService.CompareHistory(c.Context(), user.ID, req.CaseID)
	default:
		return response.BadRequest(c, "Provide either both session IDs or a case ID")
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Session not found")
	}
	if errors.Is(err, services.ErrInsufficientAttempts) {
		return response.BadRequest(c, "At least two completed attempts are required")
	}
	if errors.Is(err, services.ErrSessionMismatch) {
		return response.BadRequest(c, "Sessions must belong to the same case")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to calculate improvement")
	}

	return response.Success(c, summary)
}

func (h *RetakeHandler) logActivity(c *fiber.Ctx, userID uint, sessionID uint) {
	if h.analyticsService == nil {
		return
	}
	ip := c.IP()
	ua := c.Get("User-Agent")
	go func() {
		_ = h.analyticsService.LogActivity(context.Background(), userID, model.ActivityTypeRetakeStart, "session", sessionID, ip, ua)
	}()
}

package simulation

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

// SessionHandler handles simulation session lifecycle endpoints
type SessionHandler struct {
	sessionService   *services.SessionService
	goalService      *services.GoalService
	analyticsService *services.AnalyticsService
	validator        *validation.Validator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService, goalService *services.GoalService, analyticsService *services.AnalyticsService) *SessionHandler {
	return &SessionHandler{
		sessionService:   sessionService,
		goalService:      goalService,
		analyticsService: analyticsService,
		validator:        validation.NewValidator(),
	}
}

// StartSessionRequest is the body for POST /api/v1/simulation/sessions
type StartSessionRequest struct {
	CaseID uint `json:"case_id" validate:"required"`
}

// StartSession handles POST /api/v1/simulation/sessions
// Starts a first attempt against a case. Retakes go through the retake
// endpoint instead.
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.sessionService.StartSession(c.Context(), services.StartSessionInput{
		UserID: user.ID,
		CaseID: req.CaseID,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Case not found")
	}
	if errors.Is(err, services.ErrCaseNotAvailable) {
		return response.Forbidden(c, "Case is not available")
	}
	if errors.Is(err, services.ErrRetakeLimitReached) {
		return response.Conflict(c, "Retake limit reached for this case")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to start session")
	}

	h.logActivity(c, user.ID, model.ActivityTypeSessionStart, "session", session.ID)

	return response.Created(c, session)
}

// CompleteSessionRequest is the body for POST /api/v1/simulation/sessions/:session_id/complete
type CompleteSessionRequest struct {
	Score          float64            `json:"score" validate:"min=0,max=100"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
}

// CompleteSession handles POST /api/v1/simulation/sessions/:session_id/complete
// Marks the session completed and records its performance metric. Active
// learning goals are re-evaluated afterwards.
func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID := c.Params("session_id")
	if sessionID == "" {
		return response.BadRequest(c, "Session ID is required")
	}

	var req CompleteSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session, err := h.sessionService.CompleteSession(c.Context(), user.ID, sessionID, services.CompleteSessionInput{
		Score:          req.Score,
		CriteriaScores: req.CriteriaScores,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Session not found")
	}
	if errors.Is(err, services.ErrSessionNotInProgress) {
		return response.Conflict(c, "Session is not in progress")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to complete session")
	}

	// Goal evaluation must not block the completion response
	go func(userID uint) {
		_ = h.goalService.EvaluateActiveGoals(context.Background(), userID)
	}(user.ID)

	h.logActivity(c, user.ID, model.ActivityTypeSessionComplete, "session", session.ID)

	return response.Success(c, session)
}

// AbandonSession handles POST /api/v1/simulation/sessions/:session_id/abandon
func (h *SessionHandler) AbandonSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID := c.Params("session_id")
	if sessionID == "" {
		return response.BadRequest(c, "Session ID is required")
	}

	err := h.sessionService.AbandonSession(c.Context(), user.ID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Session not found")
	}
	if errors.Is(err, services.ErrSessionNotInProgress) {
		return response.Conflict(c, "Session is not in progress")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to abandon session")
	}

	return response.SuccessWithMessage(c, "Session abandoned", nil)
}

// GetSession handles GET /api/v1/simulation/sessions/:session_id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID := c.Params("session_id")
	if sessionID == "" {
		return response.BadRequest(c, "Session ID is required")
	}

	session, err := h.sessionService.GetSession(c.Context(), user.ID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Session not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch session")
	}

	return response.Success(c, session)
}

// parseCaseID pulls a case ID out of a route param
func parseCaseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *SessionHandler) logActivity(c *fiber.Ctx, userID uint, activityType model.ActivityType, resourceType string, resourceID uint) {
	if h.analyticsService == nil {
		return
	}
	ip := c.IP()
	ua := c.Get("User-Agent")
	go func() {
		_ = h.analyticsService.LogActivity(context.Background(), userID, activityType, resourceType, resourceID, ip, ua)
	}()
}

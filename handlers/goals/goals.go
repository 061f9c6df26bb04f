package goals

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/clinisim/simulator-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GoalHandler handles learning goal endpoints
type GoalHandler struct {
	goalService      *services.GoalService
	analyticsService *services.AnalyticsService
	validator        *validation.Validator
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalService *services.GoalService, analyticsService *services.AnalyticsService) *GoalHandler {
	return &GoalHandler{
		goalService:      goalService,
		analyticsService: analyticsService,
		validator:        validation.NewValidator(),
	}
}

// GoalRequest is the body for creating or updating a learning goal
type GoalRequest struct {
	SpecialtyID *uint   `json:"specialty_id"`
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description"`
	TargetScore float64 `json:"target_score" validate:"min=0,max=100"`
	MinSessions int     `json:"min_sessions"`
	DueDate     *string `json:"due_date"` // RFC 3339
}

// CreateGoal handles POST /api/v1/goals
func (h *GoalHandler) CreateGoal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req GoalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return response.BadRequest(c, "Invalid due date, expected RFC 3339")
	}

	goal := &model.LearningGoal{
		UserID:      user.ID,
		SpecialtyID: req.SpecialtyID,
		Title:       req.Title,
		Description: req.Description,
		TargetScore: req.TargetScore,
		MinSessions: req.MinSessions,
		DueDate:     dueDate,
	}
	if err := h.goalService.CreateGoal(c.Context(), goal); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if h.analyticsService != nil {
		ip := c.IP()
		ua := c.Get("User-Agent")
		go func() {
			_ = h.analyticsService.LogActivity(context.Background(), goal.UserID, model.ActivityTypeGoalCreated, "goal", goal.ID, ip, ua)
		}()
	}

	return response.Created(c, goal)
}

// ListGoals handles GET /api/v1/goals
func (h *GoalHandler) ListGoals(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	goals, err := h.goalService.ListGoals(c.Context(), user.ID, model.GoalStatus(c.Query("status")))
	if err != nil {
		return response.InternalServerError(c, "Failed to list goals")
	}

	return response.Success(c, goals)
}

// GetGoal handles GET /api/v1/goals/:id
func (h *GoalHandler) GetGoal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseGoalID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid goal ID")
	}

	goal, err := h.goalService.GetGoal(c.Context(), user.ID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Goal not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch goal")
	}

	return response.Success(c, goal)
}

// UpdateGoal handles PUT /api/v1/goals/:id
func (h *GoalHandler) UpdateGoal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseGoalID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid goal ID")
	}

	var req GoalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return response.BadRequest(c, "Invalid due date, expected RFC 3339")
	}

	updates := map[string]interface{}{
		"title":        req.Title,
		"description":  req.Description,
		"target_score": req.TargetScore,
		"min_sessions": req.MinSessions,
		"due_date":     dueDate,
	}

	goal, err := h.goalService.UpdateGoal(c.Context(), user.ID, id, updates)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Goal not found")
	}
	if errors.Is(err, services.ErrGoalNotActive) {
		return response.Conflict(c, "Only active goals can be updated")
	}
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, goal)
}

// AbandonGoal handles DELETE /api/v1/goals/:id
func (h *GoalHandler) AbandonGoal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseGoalID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid goal ID")
	}

	err = h.goalService.AbandonGoal(c.Context(), user.ID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Active goal not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to abandon goal")
	}

	return response.SuccessWithMessage(c, "Goal abandoned", nil)
}

// EvaluateGoal handles POST /api/v1/goals/:id/evaluate
// Re-checks the goal against recorded sessions and returns where it stands
func (h *GoalHandler) EvaluateGoal(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := parseGoalID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid goal ID")
	}

	eval, err := h.goalService.EvaluateGoal(c.Context(), user.ID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Goal not found")
	}
	if errors.Is(err, services.ErrGoalNotActive) {
		return response.Conflict(c, "Goal is not active")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to evaluate goal")
	}

	return response.Success(c, eval)
}

func parseGoalID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

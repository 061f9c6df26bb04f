package performance

import (
	"strconv"

	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// PerformanceHandler handles performance summary and metric endpoints
type PerformanceHandler struct {
	performanceService *services.PerformanceService
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(performanceService *services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{
		performanceService: performanceService,
	}
}

// GetSummary handles GET /api/v1/performance/summary
// Returns the user's overall performance view: totals, per-specialty
// breakdown, strongest and weakest areas, and recent metrics
func (h *PerformanceHandler) GetSummary(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	summary, err := h.performanceService.Summary(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to build performance summary")
	}

	return response.Success(c, summary)
}

// ListMetrics handles GET /api/v1/performance/metrics
// Supports case_id, page and limit query parameters
func (h *PerformanceHandler) ListMetrics(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	caseID, _ := strconv.ParseUint(c.Query("case_id", "0"), 10, 32)

	metrics, total, err := h.performanceService.ListMetrics(c.Context(), user.ID, uint(caseID), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list metrics")
	}

	return response.Paginated(c, metrics, response.CalculatePagination(page, limit, total))
}

package admin

import (
	"strconv"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// GetDashboard retrieves system-wide overview statistics
// GET /admin/analytics/dashboard
func GetDashboard(c *fiber.Ctx, analytics *services.AnalyticsService) error {
	stats, err := analytics.GetDashboardStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch dashboard statistics")
	}

	return response.SuccessWithMessage(c, "Dashboard statistics retrieved successfully", stats)
}

// GetSpecialtyAnalytics retrieves per-specialty usage statistics
// GET /admin/analytics/specialties/:id
func GetSpecialtyAnalytics(c *fiber.Ctx, analytics *services.AnalyticsService) error {
	specialtyID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid specialty ID")
	}

	stats, err := analytics.GetSpecialtyStats(c.Context(), uint(specialtyID))
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch specialty statistics")
	}

	return response.SuccessWithMessage(c, "Specialty statistics retrieved successfully", stats)
}

// GetActivityAnalytics retrieves daily activity counts
// GET /admin/analytics/activity
func GetActivityAnalytics(c *fiber.Ctx, analytics *services.AnalyticsService) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	activityType := model.ActivityType(c.Query("type"))

	series, err := analytics.GetActivityTimeSeries(c.Context(), days, activityType)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch activity time series")
	}

	return response.SuccessWithMessage(c, "Activity time series retrieved successfully", fiber.Map{
		"days":   days,
		"series": series,
	})
}

// GetSessionAnalytics retrieves daily completed session counts
// GET /admin/analytics/sessions
func GetSessionAnalytics(c *fiber.Ctx, analytics *services.AnalyticsService) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	series, err := analytics.GetSessionTimeSeries(c.Context(), days)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch session time series")
	}

	return response.SuccessWithMessage(c, "Session time series retrieved successfully", fiber.Map{
		"days":   days,
		"series": series,
	})
}

// GetTopCases retrieves the most attempted cases
// GET /admin/analytics/top-cases
func GetTopCases(c *fiber.Ctx, analytics *services.AnalyticsService) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	cases, err := analytics.GetTopCases(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch top cases")
	}

	return response.SuccessWithMessage(c, "Top cases retrieved successfully", cases)
}

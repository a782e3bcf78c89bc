package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradejournal/internal/middleware"
	"github.com/tradejournal/internal/service"
	"github.com/tradejournal/pkg/response"
)

// CalendarHandler handles calendar read API requests
type CalendarHandler struct {
	calendarService *service.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// Month returns the frozen day stats for a calendar month
// GET /api/v1/calendar/month/:year/:month
func (h *CalendarHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		response.BadRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		response.BadRequest(c, "invalid month")
		return
	}

	view, err := h.calendarService.GetMonth(middleware.GetUserID(c), year, month)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonth) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to load calendar")
		return
	}

	response.Success(c, view)
}

// Day returns the frozen stats and recorded legs for one trading day
// GET /api/v1/calendar/day/:date
func (h *CalendarHandler) Day(c *gin.Context) {
	view, err := h.calendarService.GetDay(middleware.GetUserID(c), c.Param("date"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrNoSnapshotForDay):
			response.NotFound(c, "no trading activity recorded for that day")
		default:
			response.InternalError(c, "failed to load day view")
		}
		return
	}

	response.Success(c, view)
}

// DayHistory returns every snapshot version frozen for one trading day
// GET /api/v1/calendar/day/:date/history
func (h *CalendarHandler) DayHistory(c *gin.Context) {
	versions, err := h.calendarService.GetDayHistory(middleware.GetUserID(c), c.Param("date"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDate):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrNoSnapshotForDay):
			response.NotFound(c, "no trading activity recorded for that day")
		default:
			response.InternalError(c, "failed to load day history")
		}
		return
	}

	response.Success(c, versions)
}

// RegisterRoutes registers calendar routes
func (h *CalendarHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	calendar := rg.Group("/calendar", authMiddleware)
	{
		calendar.GET("/month/:year/:month", h.Month)
		calendar.GET("/day/:date", h.Day)
		calendar.GET("/day/:date/history", h.DayHistory)
	}
}

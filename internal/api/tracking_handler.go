package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

// TrackingHandler serves water, activities, goals and the widget snapshot.
type TrackingHandler struct {
	waterService    service.WaterService
	activityService service.ActivityService
	goalService     service.GoalService
	widgetService   service.WidgetService
}

func NewTrackingHandler(water service.WaterService, activities service.ActivityService, goals service.GoalService, widget service.WidgetService) *TrackingHandler {
	return &TrackingHandler{
		waterService:    water,
		activityService: activities,
		goalService:     goals,
		widgetService:   widget,
	}
}

type LogWaterRequest struct {
	AmountML int    `json:"amountMl" binding:"required,gt=0"`
	Date     string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type WaterLogResponse struct {
	ID       string    `json:"id"`
	AmountML int       `json:"amountMl"`
	Date     string    `json:"date"`
	LoggedAt time.Time `json:"loggedAt"`
}

type WaterDayResponse struct {
	Date    string             `json:"date"`
	TotalML int                `json:"totalMl"`
	Logs    []WaterLogResponse `json:"logs"`
}

type ActivityRequest struct {
	ActivityType    string           `json:"activityType" binding:"required,max=64"`
	DurationMinutes int              `json:"durationMinutes" binding:"required,gt=0"`
	CaloriesBurned  float64          `json:"caloriesBurned" binding:"gte=0"`
	Intensity       domain.Intensity `json:"intensity" binding:"omitempty,oneof=low moderate high"`
	Date            string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Notes           string           `json:"notes" binding:"max=1000"`
}

func (r ActivityRequest) toInput() service.ActivityInput {
	return service.ActivityInput{
		ActivityType:    r.ActivityType,
		DurationMinutes: r.DurationMinutes,
		CaloriesBurned:  r.CaloriesBurned,
		Intensity:       r.Intensity,
		Date:            r.Date,
		Notes:           r.Notes,
	}
}

type GoalsRequest struct {
	DailyCalories  int      `json:"dailyCalories" binding:"required,gt=0"`
	ProteinG       int      `json:"proteinG" binding:"gte=0"`
	CarbsG         int      `json:"carbsG" binding:"gte=0"`
	FatG           int      `json:"fatG" binding:"gte=0"`
	WaterML        int      `json:"waterMl" binding:"required,gt=0"`
	TargetWeightKg *float64 `json:"targetWeightKg" binding:"omitempty,gt=0"`
}

// --- Water ---

// LogWater godoc
// @Summary Log a drink
// @Tags Water
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param water body LogWaterRequest true "Amount in ml"
// @Success 201 {object} WaterLogResponse
// @Router /water [post]
func (h *TrackingHandler) LogWater(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req LogWaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.waterService.LogWater(c.Request.Context(), session, req.AmountML, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapWater(w))
}

// ListWater godoc
// @Summary A day's water logs and total
// @Tags Water
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} WaterDayResponse
// @Router /water [get]
func (h *TrackingHandler) ListWater(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	day, err := h.waterService.ListWater(c.Request.Context(), session, c.Query("date"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := WaterDayResponse{Date: day.Date, TotalML: day.TotalML, Logs: make([]WaterLogResponse, 0, len(day.Logs))}
	for i := range day.Logs {
		resp.Logs = append(resp.Logs, mapWater(&day.Logs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteWater godoc
// @Summary Delete a water log
// @Tags Water
// @Security BearerAuth
// @Param id path string true "Water log ID"
// @Success 204
// @Router /water/{id} [delete]
func (h *TrackingHandler) DeleteWater(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.waterService.DeleteWater(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Activities ---

// LogActivity godoc
// @Summary Log an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activity body ActivityRequest true "Activity"
// @Success 201 {object} domain.Activity
// @Router /activities [post]
func (h *TrackingHandler) LogActivity(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.activityService.LogActivity(c.Request.Context(), session, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListActivities godoc
// @Summary List activities in a date range
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} domain.Activity
// @Router /activities [get]
func (h *TrackingHandler) ListActivities(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	list, err := h.activityService.ListActivities(c.Request.Context(), session, c.Query("from"), c.Query("to"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateActivity godoc
// @Summary Replace an activity's details
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Param activity body ActivityRequest true "Activity"
// @Success 200 {object} domain.Activity
// @Router /activities/{id} [put]
func (h *TrackingHandler) UpdateActivity(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.activityService.UpdateActivity(c.Request.Context(), session, id, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteActivity godoc
// @Summary Delete an activity
// @Tags Activities
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *TrackingHandler) DeleteActivity(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.activityService.DeleteActivity(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Goals & widget ---

// GetGoals godoc
// @Summary The caller's daily targets
// @Tags Goals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.UserGoals
// @Router /goals [get]
func (h *TrackingHandler) GetGoals(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	g, err := h.goalService.GetGoals(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// UpsertGoals godoc
// @Summary Set the caller's daily targets
// @Tags Goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goals body GoalsRequest true "Targets"
// @Success 200 {object} domain.UserGoals
// @Router /goals [put]
func (h *TrackingHandler) UpsertGoals(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req GoalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	g, err := h.goalService.UpsertGoals(c.Request.Context(), session, domain.UserGoals{
		DailyCalories:  req.DailyCalories,
		ProteinG:       req.ProteinG,
		CarbsG:         req.CarbsG,
		FatG:           req.FatG,
		WaterML:        req.WaterML,
		TargetWeightKg: req.TargetWeightKg,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// WidgetSnapshot godoc
// @Summary Today's calories against target, for the home-screen widget
// @Tags Widget
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.WidgetSnapshot
// @Router /widget [get]
func (h *TrackingHandler) WidgetSnapshot(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	snap, err := h.widgetService.WidgetSnapshot(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func mapWater(w *domain.WaterIntake) WaterLogResponse {
	return WaterLogResponse{ID: w.ID.Hex(), AmountML: w.AmountML, Date: w.Date, LoggedAt: w.LoggedAt}
}

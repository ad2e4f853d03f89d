package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

type NutritionHandler struct {
	nutritionService service.NutritionService
}

func NewNutritionHandler(nutritionService service.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService}
}

type CreateMealRequest struct {
	MealType domain.MealType `json:"mealType" binding:"required,oneof=breakfast lunch dinner snack"`
	Name     string          `json:"name" binding:"max=120"`
	Date     string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type EntryRequest struct {
	FoodName string  `json:"foodName" binding:"required,max=200"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit" binding:"max=32"`
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
	Fiber    float64 `json:"fiber" binding:"gte=0"`
}

func (r EntryRequest) toInput() service.EntryInput {
	return service.EntryInput{
		FoodName: r.FoodName,
		Quantity: r.Quantity,
		Unit:     r.Unit,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Fiber:    r.Fiber,
	}
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PhotoUploadResponse struct {
	UploadURL   string    `json:"uploadUrl"`
	ObjectKey   string    `json:"objectKey"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type MealResponse struct {
	ID        string          `json:"id"`
	MealType  domain.MealType `json:"mealType"`
	Name      string          `json:"name,omitempty"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

type EntryResponse struct {
	ID       string    `json:"id"`
	MealID   string    `json:"mealId"`
	FoodName string    `json:"foodName"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit,omitempty"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	Carbs    float64   `json:"carbs"`
	Fat      float64   `json:"fat"`
	Fiber    float64   `json:"fiber"`
	Date     string    `json:"date"`
	LoggedAt time.Time `json:"loggedAt"`
	HasPhoto bool      `json:"hasPhoto"`
}

// CreateMeal godoc
// @Summary Create a meal for a day
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meal body CreateMealRequest true "Meal"
// @Success 201 {object} MealResponse
// @Router /meals [post]
func (h *NutritionHandler) CreateMeal(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	meal, err := h.nutritionService.CreateMeal(c.Request.Context(), session, req.MealType, req.Name, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMealToResponse(meal))
}

// ListMeals godoc
// @Summary List the caller's meals for a day
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} MealResponse
// @Router /meals [get]
func (h *NutritionHandler) ListMeals(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	meals, err := h.nutritionService.ListMeals(c.Request.Context(), session, c.Query("date"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]MealResponse, 0, len(meals))
	for i := range meals {
		out = append(out, MapMealToResponse(&meals[i]))
	}
	c.JSON(http.StatusOK, out)
}

// DeleteMeal godoc
// @Summary Delete a meal and its entries
// @Tags Nutrition
// @Security BearerAuth
// @Param id path string true "Meal ID"
// @Success 204
// @Router /meals/{id} [delete]
func (h *NutritionHandler) DeleteMeal(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.nutritionService.DeleteMeal(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddEntry godoc
// @Summary Log a food into a meal
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meal ID"
// @Param entry body EntryRequest true "Food and macros"
// @Success 201 {object} EntryResponse
// @Router /meals/{id}/entries [post]
func (h *NutritionHandler) AddEntry(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	mealID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	entry, err := h.nutritionService.AddEntry(c.Request.Context(), session, mealID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(entry))
}

// ListEntries godoc
// @Summary List the caller's meal entries for a day
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {array} EntryResponse
// @Router /entries [get]
func (h *NutritionHandler) ListEntries(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	entries, err := h.nutritionService.ListEntries(c.Request.Context(), session, c.Query("date"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, MapEntryToResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateEntry godoc
// @Summary Correct a meal entry
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param entry body EntryRequest true "Food and macros"
// @Success 200 {object} EntryResponse
// @Router /entries/{id} [put]
func (h *NutritionHandler) UpdateEntry(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	entry, err := h.nutritionService.UpdateEntry(c.Request.Context(), session, id, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(entry))
}

// DeleteEntry godoc
// @Summary Delete a meal entry
// @Tags Nutrition
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 204
// @Router /entries/{id} [delete]
func (h *NutritionHandler) DeleteEntry(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.nutritionService.DeleteEntry(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DailySummary godoc
// @Summary Macro totals for one of the caller's days
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} domain.DailyNutrition
// @Router /nutrition/summary [get]
func (h *NutritionHandler) DailySummary(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	day, err := h.nutritionService.DailySummary(c.Request.Context(), session, c.Query("date"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// ClientNutrition godoc
// @Summary Last 30 days of a connected client's intake
// @Description Requires an active connection with the client.
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client profile ID"
// @Success 200 {array} domain.DailyNutrition
// @Failure 403 {object} gin.H "No active connection"
// @Router /clients/{clientId}/nutrition [get]
func (h *NutritionHandler) ClientNutrition(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	days, err := h.nutritionService.ClientNutrition(c.Request.Context(), session, clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if days == nil {
		days = []domain.DailyNutrition{}
	}
	c.JSON(http.StatusOK, days)
}

// RequestEntryPhotoUpload godoc
// @Summary Get a presigned URL to upload a meal photo
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param photo body PhotoUploadRequest true "Image content type"
// @Success 200 {object} PhotoUploadResponse
// @Router /entries/{id}/photo [post]
func (h *NutritionHandler) RequestEntryPhotoUpload(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	up, err := h.nutritionService.RequestEntryPhotoUpload(c.Request.Context(), session, id, req.ContentType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, PhotoUploadResponse{
		UploadURL:   up.UploadURL,
		ObjectKey:   up.ObjectKey,
		ContentType: up.ContentType,
		ExpiresAt:   up.ExpiresAt,
	})
}

// EntryPhotoURL godoc
// @Summary Get a presigned URL to view a meal photo
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} gin.H
// @Router /entries/{id}/photo [get]
func (h *NutritionHandler) EntryPhotoURL(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.nutritionService.EntryPhotoURL(c.Request.Context(), session, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func MapMealToResponse(m *domain.Meal) MealResponse {
	return MealResponse{
		ID:        m.ID.Hex(),
		MealType:  m.MealType,
		Name:      m.Name,
		Date:      m.Date,
		CreatedAt: m.CreatedAt,
	}
}

func MapEntryToResponse(e *domain.MealEntry) EntryResponse {
	return EntryResponse{
		ID:       e.ID.Hex(),
		MealID:   e.MealID.Hex(),
		FoodName: e.FoodName,
		Quantity: e.Quantity,
		Unit:     e.Unit,
		Calories: e.Calories,
		Protein:  e.Protein,
		Carbs:    e.Carbs,
		Fat:      e.Fat,
		Fiber:    e.Fiber,
		Date:     e.Date,
		LoggedAt: e.LoggedAt,
		HasPhoto: e.HasPhoto(),
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

type AppointmentHandler struct {
	appointmentService service.AppointmentService
}

func NewAppointmentHandler(appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

type CreateAppointmentRequest struct {
	ClientID        string    `json:"clientId" binding:"required"`
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"max=2000"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,gt=0"`
}

type UpdateAppointmentStatusRequest struct {
	Status domain.AppointmentStatus `json:"status" binding:"required,oneof=scheduled completed cancelled"`
}

type AppointmentResponse struct {
	ID              string                   `json:"id"`
	ProfessionalID  string                   `json:"professionalId"`
	ClientID        string                   `json:"clientId"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description,omitempty"`
	ScheduledAt     time.Time                `json:"scheduledAt"`
	DurationMinutes int                      `json:"durationMinutes"`
	Status          domain.AppointmentStatus `json:"status"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// CreateAppointment godoc
// @Summary Schedule a session with a client
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param appointment body CreateAppointmentRequest true "Appointment"
// @Success 201 {object} AppointmentResponse
// @Router /appointments [post]
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	clientID, err := parseObjectID(req.ClientID, "clientId")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	appt, err := h.appointmentService.CreateAppointment(c.Request.Context(), session, service.AppointmentInput{
		ClientID:        clientID,
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapAppointmentToResponse(appt))
}

// ListAppointments godoc
// @Summary List the caller's appointments by start time
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AppointmentResponse
// @Router /appointments [get]
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	appts, err := h.appointmentService.ListAppointments(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, MapAppointmentToResponse(&appts[i]))
	}
	c.JSON(http.StatusOK, out)
}

// UpdateAppointmentStatus godoc
// @Summary Complete or cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param status body UpdateAppointmentStatusRequest true "New status"
// @Success 200 {object} AppointmentResponse
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	appt, err := h.appointmentService.UpdateAppointmentStatus(c.Request.Context(), session, id, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapAppointmentToResponse(appt))
}

// DeleteAppointment godoc
// @Summary Delete an appointment
// @Tags Appointments
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 204
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.appointmentService.DeleteAppointment(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func MapAppointmentToResponse(a *domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID.Hex(),
		ProfessionalID:  a.ProfessionalID.Hex(),
		ClientID:        a.ClientID.Hex(),
		Title:           a.Title,
		Description:     a.Description,
		ScheduledAt:     a.ScheduledAt,
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
	}
}

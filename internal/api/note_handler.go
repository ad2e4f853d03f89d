package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

type NoteHandler struct {
	noteService service.NoteService
}

func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

type CreateNoteRequest struct {
	ConnectionID string          `json:"connectionId" binding:"required"`
	NoteType     domain.NoteType `json:"noteType" binding:"omitempty,oneof=general progress concern achievement"`
	Content      string          `json:"content" binding:"required,max=10000"`
	Date         string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type UpdateNoteRequest struct {
	NoteType *domain.NoteType `json:"noteType" binding:"omitempty,oneof=general progress concern achievement"`
	Content  *string          `json:"content" binding:"omitempty,max=10000"`
	Date     *string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type NoteResponse struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"clientId"`
	ConnectionID string          `json:"connectionId"`
	NoteType     domain.NoteType `json:"noteType"`
	Content      string          `json:"content"`
	Date         string          `json:"date"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ListNotes godoc
// @Summary List the caller's notes about a client
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client profile ID"
// @Success 200 {array} NoteResponse
// @Router /clients/{clientId}/notes [get]
func (h *NoteHandler) ListNotes(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	notes, err := h.noteService.ListNotes(c.Request.Context(), session, clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, MapNoteToResponse(&notes[i]))
	}
	c.JSON(http.StatusOK, out)
}

// CreateNote godoc
// @Summary Write a private note on a connected client
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param note body CreateNoteRequest true "Note"
// @Success 201 {object} NoteResponse
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	connID, err := parseObjectID(req.ConnectionID, "connectionId")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	note, err := h.noteService.CreateNote(c.Request.Context(), session, connID, req.NoteType, req.Content, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapNoteToResponse(note))
}

// UpdateNote godoc
// @Summary Edit one of the caller's notes
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param note body UpdateNoteRequest true "Fields to change"
// @Success 200 {object} NoteResponse
// @Router /notes/{id} [patch]
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	note, err := h.noteService.UpdateNote(c.Request.Context(), session, id, service.NoteUpdate{
		NoteType: req.NoteType,
		Content:  req.Content,
		Date:     req.Date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapNoteToResponse(note))
}

// DeleteNote godoc
// @Summary Delete one of the caller's notes
// @Tags Notes
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 204
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.noteService.DeleteNote(c.Request.Context(), session, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func MapNoteToResponse(n *domain.ClientNote) NoteResponse {
	return NoteResponse{
		ID:           n.ID.Hex(),
		ClientID:     n.ClientID.Hex(),
		ConnectionID: n.ConnectionID.Hex(),
		NoteType:     n.NoteType,
		Content:      n.Content,
		Date:         n.Date,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

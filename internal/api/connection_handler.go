package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

type ConnectionHandler struct {
	connectionService service.ConnectionService
}

func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

type CreateConnectionRequest struct {
	ClientEmail    string                `json:"clientEmail" binding:"required,email"`
	ConnectionType domain.ConnectionType `json:"connectionType" binding:"omitempty,oneof=nutrition_only fitness_only full_support"`
	Notes          string                `json:"notes" binding:"max=2000"`
}

type UpdateConnectionStatusRequest struct {
	Status domain.ConnectionStatus `json:"status" binding:"required"`
}

// CounterpartResponse is the other party of a connection.
type CounterpartResponse struct {
	ID       string      `json:"id"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone,omitempty"`
	Role     domain.Role `json:"role"`
}

type ConnectionResponse struct {
	ID             string                  `json:"id"`
	ClientID       string                  `json:"clientId"`
	ProfessionalID string                  `json:"professionalId"`
	ConnectionType domain.ConnectionType   `json:"connectionType"`
	Status         domain.ConnectionStatus `json:"status"`
	StartDate      string                  `json:"startDate"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	Counterpart    *CounterpartResponse    `json:"counterpart,omitempty"`
}

// ListConnections godoc
// @Summary List the caller's connections, newest first
// @Tags Connections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ConnectionResponse
// @Router /connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	rows, err := h.connectionService.ListConnections(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]ConnectionResponse, 0, len(rows))
	for i := range rows {
		resp := MapConnectionToResponse(&rows[i].ClientConnection)
		if p := rows[i].Counterpart; p != nil {
			resp.Counterpart = &CounterpartResponse{
				ID:       p.ID.Hex(),
				FullName: p.FullName,
				Email:    p.Email,
				Phone:    p.Phone,
				Role:     p.Role,
			}
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// CreateConnection godoc
// @Summary Invite a client by email (dietitians and trainers)
// @Tags Connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param connection body CreateConnectionRequest true "Client email and connection type"
// @Success 201 {object} ConnectionResponse
// @Failure 404 {object} gin.H "No client with this email"
// @Failure 409 {object} gin.H "Connection already exists"
// @Router /connections [post]
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	conn, err := h.connectionService.CreateConnection(c.Request.Context(), session, req.ClientEmail, req.ConnectionType, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapConnectionToResponse(conn))
}

// UpdateConnectionStatus godoc
// @Summary Change a connection's status (either party)
// @Tags Connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Connection ID"
// @Param status body UpdateConnectionStatusRequest true "New status"
// @Success 200 {object} ConnectionResponse
// @Router /connections/{id}/status [patch]
func (h *ConnectionHandler) UpdateConnectionStatus(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateConnectionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	conn, err := h.connectionService.UpdateConnectionStatus(c.Request.Context(), session, id, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapConnectionToResponse(conn))
}

func MapConnectionToResponse(conn *domain.ClientConnection) ConnectionResponse {
	return ConnectionResponse{
		ID:             conn.ID.Hex(),
		ClientID:       conn.ClientID.Hex(),
		ProfessionalID: conn.ProfessionalID.Hex(),
		ConnectionType: conn.ConnectionType,
		Status:         conn.Status,
		StartDate:      conn.StartDate,
		Notes:          conn.Notes,
		CreatedAt:      conn.CreatedAt,
		UpdatedAt:      conn.UpdatedAt,
	}
}

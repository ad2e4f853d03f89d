package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/realtime"
	"nutritrack/app/internal/service"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

type MessageHandler struct {
	messageService service.MessageService
	hub            *realtime.Hub
	upgrader       websocket.Upgrader
	log            zerolog.Logger
}

func NewMessageHandler(messageService service.MessageService, hub *realtime.Hub, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		hub:            hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Mobile clients send no Origin; browsers are authenticated by token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "message_stream").Logger(),
	}
}

type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Message     string `json:"message" binding:"max=4000"`
}

type MessageResponse struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connectionId"`
	SenderID     string     `json:"senderId"`
	RecipientID  string     `json:"recipientId"`
	Message      string     `json:"message"`
	SentAt       time.Time  `json:"sentAt"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
}

// StreamSubscribedOp is the first frame on a thread stream. Every later
// change is delivered as a patch, so clients list the thread once this frame
// arrives and apply patches by id from then on.
const StreamSubscribedOp domain.PatchOp = "subscribed"

// PatchResponse is one frame on the thread stream.
type PatchResponse struct {
	Op           domain.PatchOp   `json:"op"`
	ConnectionID string           `json:"connectionId"`
	ID           string           `json:"id"`
	Message      *MessageResponse `json:"message,omitempty"`
}

// ListMessages godoc
// @Summary List a connection's messages, oldest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Connection ID"
// @Success 200 {array} MessageResponse
// @Router /connections/{id}/messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	connID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.messageService.ListMessages(c.Request.Context(), session, connID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, MapMessageToResponse(&msgs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// SendMessage godoc
// @Summary Send a message on a connection
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Connection ID"
// @Param message body SendMessageRequest true "Recipient and text"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} gin.H "Empty message or wrong recipient"
// @Router /connections/{id}/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	connID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	recipientID, err := parseObjectID(req.RecipientID, "recipientId")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := h.messageService.SendMessage(c.Request.Context(), session, connID, recipientID, req.Message)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMessageToResponse(msg))
}

// MarkAsRead godoc
// @Summary Mark a received message as read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param messageId path string true "Message ID"
// @Success 200 {object} MessageResponse
// @Router /messages/{messageId}/read [post]
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	msgID, ok := objectIDParam(c, "messageId")
	if !ok {
		return
	}
	msg, err := h.messageService.MarkAsRead(c.Request.Context(), session, msgID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMessageToResponse(msg))
}

// UnreadCount godoc
// @Summary Count unread messages addressed to the caller
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	n, err := h.messageService.UnreadCount(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// StreamMessages godoc
// @Summary Websocket of incremental thread patches
// @Description First frame is {op: "subscribed"}; list the thread after it. Then emits {op, connectionId, id, message?} frames for inserts, read receipts and deletes.
// @Tags Messages
// @Security BearerAuth
// @Param id path string true "Connection ID"
// @Router /connections/{id}/messages/stream [get]
func (h *MessageHandler) StreamMessages(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	connID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.AuthorizeThread(c.Request.Context(), session, connID); err != nil {
		respondWithError(c, err)
		return
	}

	// Subscribe before upgrading so nothing published during the handshake
	// is lost; it is buffered and follows the subscribed frame.
	sub := h.hub.Subscribe(connID)
	defer sub.Close()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()

	log := h.log.With().Str("connection_id", connID.Hex()).Str("user_id", session.UserID.Hex()).Logger()

	_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := ws.WriteJSON(PatchResponse{Op: StreamSubscribedOp, ConnectionID: connID.Hex()}); err != nil {
		log.Debug().Err(err).Msg("stream write failed")
		return
	}
	log.Debug().Msg("stream opened")

	// The read loop only drains control frames and notices the peer leaving.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(streamPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case patch, open := <-sub.C:
			_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !open {
				// Dropped for lagging; the client reloads and reconnects.
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync required"))
				return
			}
			if err := ws.WriteJSON(MapPatchToResponse(patch)); err != nil {
				log.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Debug().Msg("stream closed by peer")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func MapMessageToResponse(m *domain.ClientMessage) MessageResponse {
	return MessageResponse{
		ID:           m.ID.Hex(),
		ConnectionID: m.ConnectionID.Hex(),
		SenderID:     m.SenderID.Hex(),
		RecipientID:  m.RecipientID.Hex(),
		Message:      m.Message,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

func MapPatchToResponse(p domain.MessagePatch) PatchResponse {
	resp := PatchResponse{Op: p.Op, ConnectionID: p.ConnectionID.Hex(), ID: p.ID.Hex()}
	if p.Message != nil {
		m := MapMessageToResponse(p.Message)
		resp.Message = &m
	}
	return resp
}

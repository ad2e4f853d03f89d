package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/service"
)

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidRecipient):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthenticationFailed),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNoAccess),
		errors.Is(err, service.ErrNotProfessional):
		return http.StatusForbidden
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrConnectionNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, service.ErrAppointmentNotFound),
		errors.Is(err, service.ErrMealNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrWaterNotFound),
		errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrConnectionExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotAClient):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondWithError writes the mapped status. Internal errors get a generic
// message; the cause is attached to the context for the request logger.
func respondWithError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abortWithError(c, status, "An unexpected error occurred")
		return
	}
	abortWithError(c, status, err.Error())
}

func bindError(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
}

// objectIDParam parses a hex path parameter, aborting with 400 on failure.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid " + field + " format")
	}
	return id, nil
}

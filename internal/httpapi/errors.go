package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeInvalidPayload       = "invalid_payload"
	codeValidation           = "validation_error"
	codeSlotTaken            = "slot_taken"
	codePastSlot             = "past_slot"
	codeActiveExists         = "active_reservation_exists"
	codeNotActive            = "reservation_not_active"
	codeNoUpcoming           = "no_upcoming_reservation"
	codeNotFound             = "not_found"
	codeInvalidCredentials   = "invalid_credentials"
	codeUnauthorized         = "unauthorized"
	codeInvalidReservationID = "invalid_reservation_id"
	codeStorage              = "storage_error"

	messageInvalidPayload     = "expected JSON body"
	messageSlotTaken          = "This time slot is already booked."
	messagePastSlot           = "This time slot has already passed."
	messageActiveExists       = "You already have an upcoming reservation."
	messageNotActive          = "This reservation has already passed and can no longer be changed."
	messageNoUpcoming         = "No upcoming reservation found. Check your reservation history."
	messageNotFound           = "No reservation or waitlist entry found."
	messageInvalidCredentials = "Invalid login ID or password."
	messageUnauthorized       = "manager session required"
	messageInvalidID          = "reservation id must be a positive number"
	messageStorage            = "The reservation system is unavailable. Please try again."
)

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func validationResponse(validationError reservation.ValidationError) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    codeValidation,
			"field":   validationError.Field(),
			"message": validationError.Reason(),
		},
	}
}

// respondError maps a domain error onto a status code. Storage failures are logged and reported generically.
func (handler *httpHandler) respondError(ctx *gin.Context, operation string, err error) {
	var validationError reservation.ValidationError
	switch {
	case errors.As(err, &validationError):
		ctx.JSON(http.StatusBadRequest, validationResponse(validationError))
	case errors.Is(err, reservation.ErrInvalidReservationID):
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidReservationID, messageInvalidID))
	case errors.Is(err, reservation.ErrPastSlot):
		ctx.JSON(http.StatusConflict, errorResponse(codePastSlot, messagePastSlot))
	case errors.Is(err, reservation.ErrSlotTaken):
		ctx.JSON(http.StatusConflict, errorResponse(codeSlotTaken, messageSlotTaken))
	case errors.Is(err, reservation.ErrActiveReservationExists):
		ctx.JSON(http.StatusConflict, errorResponse(codeActiveExists, messageActiveExists))
	case errors.Is(err, reservation.ErrReservationNotActive):
		ctx.JSON(http.StatusConflict, errorResponse(codeNotActive, messageNotActive))
	case errors.Is(err, reservation.ErrNoUpcomingReservation):
		ctx.JSON(http.StatusNotFound, errorResponse(codeNoUpcoming, messageNoUpcoming))
	case errors.Is(err, reservation.ErrNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse(codeNotFound, messageNotFound))
	case errors.Is(err, reservation.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, errorResponse(codeInvalidCredentials, messageInvalidCredentials))
	default:
		handler.logger.Error("request failed",
			zap.String("operation", operation),
			zap.String("request_id", requestID(ctx)),
			zap.Bool("storage", reservation.IsStorageError(err)),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, errorResponse(codeStorage, messageStorage))
	}
}

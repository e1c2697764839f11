package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type httpHandler struct {
	logger   *zap.Logger
	service  *reservation.Service
	auth     *reservation.ManagerAuth
	sessions *sessionManager
}

func (handler *httpHandler) handleSlots(ctx *gin.Context) {
	date, err := reservation.ParseReservationDate(ctx.Query("date"))
	if err != nil {
		handler.respondError(ctx, "slots", err)
		return
	}
	slots, err := handler.service.Slots(ctx.Request.Context(), date)
	if err != nil {
		handler.respondError(ctx, "slots", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"date": date.String(), "slots": newSlotPayloads(slots)})
}

func (handler *httpHandler) handleBook(ctx *gin.Context) {
	var request bookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, messageInvalidPayload))
		return
	}
	details, err := request.form().Parse()
	if err != nil {
		handler.respondError(ctx, "book", err)
		return
	}
	offer := func(context.Context, reservation.ReservationDetails) bool { return request.JoinWaitlist }
	outcome, err := handler.service.BookOrOfferWaitlist(ctx.Request.Context(), details, offer)
	if err != nil {
		handler.respondError(ctx, "book", err)
		return
	}
	switch outcome.Status {
	case reservation.BookingStatusBooked:
		ctx.JSON(http.StatusCreated, gin.H{
			"status":      outcome.Status,
			"reservation": newReservationPayload(outcome.Reservation),
		})
	case reservation.BookingStatusWaitlisted:
		ctx.JSON(http.StatusAccepted, gin.H{
			"status":         outcome.Status,
			"waitlist_entry": newWaitlistPayload(outcome.WaitlistEntry),
		})
	default:
		ctx.JSON(http.StatusConflict, gin.H{
			"status": outcome.Status,
			"error":  gin.H{"code": codeSlotTaken, "message": messageSlotTaken},
		})
	}
}

func (handler *httpHandler) handleSearch(ctx *gin.Context) {
	contact, err := reservation.NewContact(ctx.Query("name"), ctx.Query("phone"))
	if err != nil {
		handler.respondError(ctx, "search", err)
		return
	}
	result, err := handler.service.Search(ctx.Request.Context(), contact)
	if err != nil {
		handler.respondError(ctx, "search", err)
		return
	}
	if result.Status == reservation.SearchStatusWaitlisted {
		ctx.JSON(http.StatusOK, gin.H{"status": result.Status, "waitlist_entry": newWaitlistPayload(result.WaitlistEntry)})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": result.Status, "reservation": newReservationPayload(result.Reservation)})
}

func (handler *httpHandler) handleHistory(ctx *gin.Context) {
	contact, err := reservation.NewContact(ctx.Query("name"), ctx.Query("phone"))
	if err != nil {
		handler.respondError(ctx, "history", err)
		return
	}
	history, err := handler.service.History(ctx.Request.Context(), contact)
	if err != nil {
		handler.respondError(ctx, "history", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": newReservationPayloads(slices.Collect(history))})
}

func (handler *httpHandler) handleCancel(ctx *gin.Context) {
	var request contactRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, messageInvalidPayload))
		return
	}
	contact, err := reservation.NewContact(request.Name, request.Phone)
	if err != nil {
		handler.respondError(ctx, "cancel", err)
		return
	}
	cancelled, err := handler.service.Cancel(ctx.Request.Context(), contact)
	if err != nil {
		handler.respondError(ctx, "cancel", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (handler *httpHandler) handleUpdate(ctx *gin.Context) {
	id, err := reservation.ParseReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "update", err)
		return
	}
	var request updateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, messageInvalidPayload))
		return
	}
	owner, err := reservation.NewContact(request.Owner.Name, request.Owner.Phone)
	if err != nil {
		handler.respondError(ctx, "update", err)
		return
	}
	details, err := request.form().Parse()
	if err != nil {
		handler.respondError(ctx, "update", err)
		return
	}
	updated, err := handler.service.Update(ctx.Request.Context(), owner, id, details)
	if err != nil {
		handler.respondError(ctx, "update", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservation": newReservationPayload(updated)})
}

func (handler *httpHandler) handleJoinWaitlist(ctx *gin.Context) {
	var request waitlistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, messageInvalidPayload))
		return
	}
	contact, err := reservation.NewContact(request.Name, request.Phone)
	if err != nil {
		handler.respondError(ctx, "join_waitlist", err)
		return
	}
	partySize, err := reservation.ParsePartySize(string(request.PartySize))
	if err != nil {
		handler.respondError(ctx, "join_waitlist", err)
		return
	}
	entry, err := handler.service.JoinWaitlist(ctx.Request.Context(), contact, partySize)
	if err != nil {
		handler.respondError(ctx, "join_waitlist", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"waitlist_entry": newWaitlistPayload(entry)})
}

func (handler *httpHandler) handleWaitlistPosition(ctx *gin.Context) {
	contact, err := reservation.NewContact(ctx.Query("name"), ctx.Query("phone"))
	if err != nil {
		handler.respondError(ctx, "waitlist_position", err)
		return
	}
	position, err := handler.service.WaitlistPosition(ctx.Request.Context(), contact)
	if err != nil {
		handler.respondError(ctx, "waitlist_position", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"position": position})
}

func (handler *httpHandler) handleLeaveWaitlist(ctx *gin.Context) {
	phone, err := reservation.NewPhoneNumber(ctx.Param("phone"))
	if err != nil {
		handler.respondError(ctx, "leave_waitlist", err)
		return
	}
	removed, err := handler.service.RemoveFromWaitlist(ctx.Request.Context(), phone)
	if err != nil {
		handler.respondError(ctx, "leave_waitlist", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidPayload, messageInvalidPayload))
		return
	}
	authenticated, err := handler.auth.Authenticate(ctx.Request.Context(), request.LoginID, request.Password)
	if err != nil {
		handler.respondError(ctx, "authenticate_manager", err)
		return
	}
	if !authenticated {
		handler.respondError(ctx, "authenticate_manager", reservation.ErrInvalidCredentials)
		return
	}
	loginID, err := reservation.NewLoginID(request.LoginID)
	if err != nil {
		handler.respondError(ctx, "authenticate_manager", err)
		return
	}
	token, expiresAt, err := handler.sessions.issue(loginID.String())
	if err != nil {
		handler.respondError(ctx, "authenticate_manager", err)
		return
	}
	handler.sessions.setCookie(ctx, token)
	ctx.JSON(http.StatusOK, gin.H{
		"login_id":   loginID.String(),
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}

func (handler *httpHandler) handleLogout(ctx *gin.Context) {
	handler.sessions.clearCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleSession(ctx *gin.Context) {
	claims := getManagerClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse(codeUnauthorized, messageUnauthorized))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"login_id": claims.Subject,
		"expires":  claims.ExpiresAt.Unix(),
	})
}

func (handler *httpHandler) handleAdminReservations(ctx *gin.Context) {
	reservations, err := handler.service.ListAllReservations(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list_reservations", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": newReservationPayloads(reservations)})
}

func (handler *httpHandler) handleAdminWaitlist(ctx *gin.Context) {
	entries, err := handler.service.ListAllWaitlist(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list_waitlist", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"waitlist": newWaitlistPayloads(entries)})
}

func (handler *httpHandler) handleAdminCancel(ctx *gin.Context) {
	phone, err := reservation.NewPhoneNumber(ctx.Param("phone"))
	if err != nil {
		handler.respondError(ctx, "admin_cancel", err)
		return
	}
	cancelled, err := handler.service.AdminCancel(ctx.Request.Context(), phone)
	if err != nil {
		handler.respondError(ctx, "admin_cancel", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (handler *httpHandler) handleAdminRemoveWaitlist(ctx *gin.Context) {
	phone, err := reservation.NewPhoneNumber(ctx.Param("phone"))
	if err != nil {
		handler.respondError(ctx, "admin_remove_waitlist", err)
		return
	}
	removed, err := handler.service.AdminRemoveFromWaitlist(ctx.Request.Context(), phone)
	if err != nil {
		handler.respondError(ctx, "admin_remove_waitlist", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}

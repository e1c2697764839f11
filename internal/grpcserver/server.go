package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	reservationv1 "github.com/MarkoPoloResearchLab/tablebook/api/reservation/v1"
	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorSlotTaken            = "slot_taken"
	errorPastSlot             = "past_slot"
	errorActiveExists         = "active_reservation_exists"
	errorNotActive            = "reservation_not_active"
	errorNoUpcoming           = "no_upcoming_reservation"
	errorNotFound             = "not_found"
	errorInvalidReservationID = "invalid_reservation_id"
	errorInvalidFieldFormat   = "invalid_%s"
	errorStorage              = "storage_error"
)

// ReservationServiceServer exposes the customer-facing reservation operations over gRPC.
type ReservationServiceServer struct {
	reservationv1.UnimplementedReservationServiceServer
	service *reservation.Service
	logger  *zap.Logger
}

// NewReservationServiceServer constructs a gRPC server for the reservation service.
func NewReservationServiceServer(service *reservation.Service, logger *zap.Logger) *ReservationServiceServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationServiceServer{service: service, logger: logger}
}

func (server *ReservationServiceServer) Slots(ctx context.Context, request *reservationv1.SlotsRequest) (*reservationv1.SlotsResponse, error) {
	date, err := reservation.ParseReservationDate(request.GetDate())
	if err != nil {
		return nil, server.mapToGRPCError("slots", err)
	}
	slots, err := server.service.Slots(ctx, date)
	if err != nil {
		return nil, server.mapToGRPCError("slots", err)
	}
	response := &reservationv1.SlotsResponse{Date: date.String(), Slots: make([]*reservationv1.Slot, 0, len(slots))}
	for _, slot := range slots {
		response.Slots = append(response.Slots, &reservationv1.Slot{
			Time:   slot.Time.String(),
			Label:  slot.Time.Label(),
			Status: string(slot.Status),
		})
	}
	return response, nil
}

func (server *ReservationServiceServer) Book(ctx context.Context, request *reservationv1.BookRequest) (*reservationv1.BookResponse, error) {
	details, err := reservation.BookingForm{
		Name:            request.Name,
		Phone:           request.Phone,
		PartySize:       strconv.Itoa(int(request.PartySize)),
		Date:            request.Date,
		Time:            request.Time,
		SpecialRequests: request.SpecialRequests,
	}.Parse()
	if err != nil {
		return nil, server.mapToGRPCError("book", err)
	}
	joinWaitlist := request.GetJoinWaitlist()
	offer := func(context.Context, reservation.ReservationDetails) bool { return joinWaitlist }
	outcome, err := server.service.BookOrOfferWaitlist(ctx, details, offer)
	if err != nil {
		return nil, server.mapToGRPCError("book", err)
	}
	switch outcome.Status {
	case reservation.BookingStatusBooked:
		return &reservationv1.BookResponse{Status: string(outcome.Status), Reservation: newReservationMessage(outcome.Reservation)}, nil
	case reservation.BookingStatusWaitlisted:
		return &reservationv1.BookResponse{Status: string(outcome.Status), WaitlistEntry: newWaitlistMessage(outcome.WaitlistEntry)}, nil
	default:
		return nil, server.mapToGRPCError("book", reservation.ErrSlotTaken)
	}
}

func (server *ReservationServiceServer) Search(ctx context.Context, request *reservationv1.Contact) (*reservationv1.SearchResponse, error) {
	contact, err := reservation.NewContact(request.GetName(), request.GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("search", err)
	}
	result, err := server.service.Search(ctx, contact)
	if err != nil {
		return nil, server.mapToGRPCError("search", err)
	}
	if result.Status == reservation.SearchStatusWaitlisted {
		return &reservationv1.SearchResponse{Status: string(result.Status), WaitlistEntry: newWaitlistMessage(result.WaitlistEntry)}, nil
	}
	return &reservationv1.SearchResponse{Status: string(result.Status), Reservation: newReservationMessage(result.Reservation)}, nil
}

func (server *ReservationServiceServer) Update(ctx context.Context, request *reservationv1.UpdateRequest) (*reservationv1.UpdateResponse, error) {
	id, err := reservation.NewReservationID(request.GetId())
	if err != nil {
		return nil, server.mapToGRPCError("update", err)
	}
	owner, err := reservation.NewContact(request.GetOwner().GetName(), request.GetOwner().GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("update", err)
	}
	details, err := reservation.BookingForm{
		Name:            request.Name,
		Phone:           request.Phone,
		PartySize:       strconv.Itoa(int(request.PartySize)),
		Date:            request.Date,
		Time:            request.Time,
		SpecialRequests: request.SpecialRequests,
	}.Parse()
	if err != nil {
		return nil, server.mapToGRPCError("update", err)
	}
	updated, err := server.service.Update(ctx, owner, id, details)
	if err != nil {
		return nil, server.mapToGRPCError("update", err)
	}
	return &reservationv1.UpdateResponse{Reservation: newReservationMessage(updated)}, nil
}

func (server *ReservationServiceServer) Cancel(ctx context.Context, request *reservationv1.Contact) (*reservationv1.CancelResponse, error) {
	contact, err := reservation.NewContact(request.GetName(), request.GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("cancel", err)
	}
	cancelled, err := server.service.Cancel(ctx, contact)
	if err != nil {
		return nil, server.mapToGRPCError("cancel", err)
	}
	return &reservationv1.CancelResponse{Cancelled: cancelled}, nil
}

func (server *ReservationServiceServer) History(ctx context.Context, request *reservationv1.Contact) (*reservationv1.HistoryResponse, error) {
	contact, err := reservation.NewContact(request.GetName(), request.GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("history", err)
	}
	history, err := server.service.History(ctx, contact)
	if err != nil {
		return nil, server.mapToGRPCError("history", err)
	}
	past := slices.Collect(history)
	response := &reservationv1.HistoryResponse{Reservations: make([]*reservationv1.Reservation, 0, len(past))}
	for _, record := range past {
		response.Reservations = append(response.Reservations, newReservationMessage(record))
	}
	return response, nil
}

func (server *ReservationServiceServer) JoinWaitlist(ctx context.Context, request *reservationv1.JoinWaitlistRequest) (*reservationv1.JoinWaitlistResponse, error) {
	contact, err := reservation.NewContact(request.Name, request.Phone)
	if err != nil {
		return nil, server.mapToGRPCError("join_waitlist", err)
	}
	partySize, err := reservation.NewPartySize(int(request.PartySize))
	if err != nil {
		return nil, server.mapToGRPCError("join_waitlist", err)
	}
	entry, err := server.service.JoinWaitlist(ctx, contact, partySize)
	if err != nil {
		return nil, server.mapToGRPCError("join_waitlist", err)
	}
	return &reservationv1.JoinWaitlistResponse{WaitlistEntry: newWaitlistMessage(entry)}, nil
}

func (server *ReservationServiceServer) WaitlistPosition(ctx context.Context, request *reservationv1.Contact) (*reservationv1.WaitlistPositionResponse, error) {
	contact, err := reservation.NewContact(request.GetName(), request.GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("waitlist_position", err)
	}
	position, err := server.service.WaitlistPosition(ctx, contact)
	if err != nil {
		return nil, server.mapToGRPCError("waitlist_position", err)
	}
	return &reservationv1.WaitlistPositionResponse{Position: int32(position)}, nil
}

func (server *ReservationServiceServer) LeaveWaitlist(ctx context.Context, request *reservationv1.LeaveWaitlistRequest) (*reservationv1.LeaveWaitlistResponse, error) {
	phone, err := reservation.NewPhoneNumber(request.GetPhone())
	if err != nil {
		return nil, server.mapToGRPCError("leave_waitlist", err)
	}
	removed, err := server.service.RemoveFromWaitlist(ctx, phone)
	if err != nil {
		return nil, server.mapToGRPCError("leave_waitlist", err)
	}
	return &reservationv1.LeaveWaitlistResponse{Removed: removed}, nil
}

func newReservationMessage(record reservation.Reservation) *reservationv1.Reservation {
	return &reservationv1.Reservation{
		Id:              record.ID().Int64(),
		Name:            record.Contact().Name().String(),
		Phone:           record.Contact().Phone().String(),
		PartySize:       int32(record.PartySize().Int()),
		Date:            record.Date().String(),
		Time:            record.Time().String(),
		TimeLabel:       record.Time().Label(),
		SpecialRequests: record.SpecialRequests(),
	}
}

func newWaitlistMessage(entry reservation.WaitlistEntry) *reservationv1.WaitlistEntry {
	return &reservationv1.WaitlistEntry{
		Name:           entry.Contact().Name().String(),
		Phone:          entry.Contact().Phone().String(),
		PartySize:      int32(entry.PartySize().Int()),
		Position:       int32(entry.Position()),
		AddedAtUnixUtc: entry.AddedAt().UTC().Unix(),
	}
}

func (server *ReservationServiceServer) mapToGRPCError(operation string, source error) error {
	var validationError reservation.ValidationError
	if errors.As(source, &validationError) {
		return status.Error(codes.InvalidArgument, fmt.Sprintf(errorInvalidFieldFormat, validationError.Field()))
	}
	if errors.Is(source, reservation.ErrInvalidReservationID) {
		return status.Error(codes.InvalidArgument, errorInvalidReservationID)
	}
	if errors.Is(source, reservation.ErrPastSlot) {
		return status.Error(codes.FailedPrecondition, errorPastSlot)
	}
	if errors.Is(source, reservation.ErrSlotTaken) {
		return status.Error(codes.AlreadyExists, errorSlotTaken)
	}
	if errors.Is(source, reservation.ErrActiveReservationExists) {
		return status.Error(codes.AlreadyExists, errorActiveExists)
	}
	if errors.Is(source, reservation.ErrReservationNotActive) {
		return status.Error(codes.FailedPrecondition, errorNotActive)
	}
	if errors.Is(source, reservation.ErrNoUpcomingReservation) {
		return status.Error(codes.NotFound, errorNoUpcoming)
	}
	if errors.Is(source, reservation.ErrNotFound) {
		return status.Error(codes.NotFound, errorNotFound)
	}
	server.logger.Error("rpc failed",
		zap.String("operation", operation),
		zap.Bool("storage", reservation.IsStorageError(source)),
		zap.Error(source),
	)
	return status.Error(codes.Internal, errorStorage)
}

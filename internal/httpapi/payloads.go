package httpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
)

// formValue accepts a JSON string or a bare JSON literal, keeping the raw text for domain parsing.
type formValue string

func (value *formValue) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*value = formValue(text)
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*value = ""
		return nil
	}
	*value = formValue(trimmed)
	return nil
}

type bookingRequest struct {
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	PartySize       formValue `json:"party_size"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	SpecialRequests string    `json:"special_requests"`
	JoinWaitlist    bool      `json:"join_waitlist"`
}

func (request bookingRequest) form() reservation.BookingForm {
	return reservation.BookingForm{
		Name:            request.Name,
		Phone:           request.Phone,
		PartySize:       string(request.PartySize),
		Date:            request.Date,
		Time:            request.Time,
		SpecialRequests: request.SpecialRequests,
	}
}

// updateRequest carries the current holder of the reservation next to its replacement fields.
type updateRequest struct {
	bookingRequest
	Owner contactRequest `json:"owner"`
}

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type waitlistRequest struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	PartySize formValue `json:"party_size"`
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

type slotPayload struct {
	Time   string `json:"time"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

type reservationPayload struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	PartySize       int    `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	TimeLabel       string `json:"time_label"`
	SpecialRequests string `json:"special_requests"`
}

type waitlistPayload struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	PartySize int       `json:"party_size"`
	Position  int       `json:"position"`
	AddedAt   time.Time `json:"added_at"`
}

func newSlotPayloads(slots []reservation.Slot) []slotPayload {
	payloads := make([]slotPayload, 0, len(slots))
	for _, slot := range slots {
		payloads = append(payloads, slotPayload{
			Time:   slot.Time.String(),
			Label:  slot.Time.Label(),
			Status: string(slot.Status),
		})
	}
	return payloads
}

func newReservationPayload(found reservation.Reservation) reservationPayload {
	return reservationPayload{
		ID:              found.ID().Int64(),
		Name:            found.Contact().Name().String(),
		Phone:           found.Contact().Phone().String(),
		PartySize:       found.PartySize().Int(),
		Date:            found.Date().String(),
		Time:            found.Time().String(),
		TimeLabel:       found.Time().Label(),
		SpecialRequests: found.SpecialRequests(),
	}
}

func newReservationPayloads(reservations []reservation.Reservation) []reservationPayload {
	payloads := make([]reservationPayload, 0, len(reservations))
	for _, found := range reservations {
		payloads = append(payloads, newReservationPayload(found))
	}
	return payloads
}

func newWaitlistPayload(entry reservation.WaitlistEntry) waitlistPayload {
	return waitlistPayload{
		Name:      entry.Contact().Name().String(),
		Phone:     entry.Contact().Phone().String(),
		PartySize: entry.PartySize().Int(),
		Position:  entry.Position(),
		AddedAt:   entry.AddedAt().UTC(),
	}
}

func newWaitlistPayloads(entries []reservation.WaitlistEntry) []waitlistPayload {
	payloads := make([]waitlistPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newWaitlistPayload(entry))
	}
	return payloads
}

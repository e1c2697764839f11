package reservation

import (
	"context"
	"time"
)

// EventType names a committed change.
type EventType string

const (
	EventReservationBooked    EventType = "reservation.booked"
	EventReservationUpdated   EventType = "reservation.updated"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventWaitlistJoined       EventType = "waitlist.joined"
	EventWaitlistLeft         EventType = "waitlist.left"
)

// Event describes a change after it has been committed.
type Event struct {
	Type          EventType
	ReservationID ReservationID
	Contact       Contact
	Phone         PhoneNumber
	Slot          SlotKey
	Position      int
	Count         int64
	OccurredAt    time.Time
}

// Notifier receives committed events. Delivery failures do not roll back the change.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

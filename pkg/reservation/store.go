package reservation

import (
	"context"
	"time"
)

// WaitlistEntryInput is a waitlist row about to be written.
type WaitlistEntryInput struct {
	Contact   Contact
	PartySize PartySize
	Position  int
	AddedAt   time.Time
}

// Store is the persistence contract used by Service.
// InsertReservation and UpdateReservation report ErrSlotTaken when the
// (date, time) uniqueness constraint rejects the write.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	InsertReservation(ctx context.Context, details ReservationDetails) (Reservation, error)
	GetReservation(ctx context.Context, id ReservationID) (Reservation, error)
	FindReservationAt(ctx context.Context, slot SlotKey) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) error
	ListBookedTimes(ctx context.Context, date ReservationDate) ([]SlotTime, error)
	FindReservationsByContact(ctx context.Context, contact Contact) ([]Reservation, error)
	ListReservationsBefore(ctx context.Context, contact Contact, cutoff SlotKey) ([]Reservation, error)
	DeleteReservationsByContact(ctx context.Context, contact Contact, notBefore SlotKey) (int64, error)
	DeleteReservationsByPhone(ctx context.Context, phone PhoneNumber, notBefore SlotKey) (int64, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	MaxWaitlistPosition(ctx context.Context) (int, error)
	InsertWaitlistEntry(ctx context.Context, input WaitlistEntryInput) (WaitlistEntry, error)
	FindWaitlistEntry(ctx context.Context, contact Contact) (WaitlistEntry, error)
	DeleteWaitlistEntriesByPhone(ctx context.Context, phone PhoneNumber) ([]int, error)
	ShiftWaitlistPositions(ctx context.Context, above int) error
	ListWaitlist(ctx context.Context) ([]WaitlistEntry, error)
}

// ManagerStore persists manager credentials.
type ManagerStore interface {
	CreateManager(ctx context.Context, credential ManagerCredential) error
	GetManager(ctx context.Context, loginID LoginID) (ManagerCredential, error)
}

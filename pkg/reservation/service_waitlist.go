package reservation

import (
	"context"
	"errors"
	"slices"
)

// WaitlistOffer asks the customer whether to join the waitlist after a slot conflict.
type WaitlistOffer func(ctx context.Context, details ReservationDetails) bool

// BookingStatus is the terminal state of BookOrOfferWaitlist.
type BookingStatus string

const (
	BookingStatusBooked     BookingStatus = "booked"
	BookingStatusWaitlisted BookingStatus = "waitlisted"
	BookingStatusAbandoned  BookingStatus = "abandoned"
)

// BookingOutcome reports what BookOrOfferWaitlist ended up doing.
type BookingOutcome struct {
	Status        BookingStatus
	Reservation   Reservation
	WaitlistEntry WaitlistEntry
}

// BookOrOfferWaitlist books details and, when the slot is taken, offers the waitlist.
// A nil offer is treated as a decline.
func (service *Service) BookOrOfferWaitlist(ctx context.Context, details ReservationDetails, offer WaitlistOffer) (BookingOutcome, error) {
	booked, err := service.Book(ctx, details)
	if err == nil {
		return BookingOutcome{Status: BookingStatusBooked, Reservation: booked}, nil
	}
	if !errors.Is(err, ErrSlotTaken) {
		return BookingOutcome{}, err
	}
	if offer == nil || !offer(ctx, details) {
		return BookingOutcome{Status: BookingStatusAbandoned}, nil
	}
	entry, err := service.JoinWaitlist(ctx, details.Contact, details.PartySize)
	if err != nil {
		return BookingOutcome{}, err
	}
	return BookingOutcome{Status: BookingStatusWaitlisted, WaitlistEntry: entry}, nil
}

// JoinWaitlist appends the contact at the tail of the queue.
func (service *Service) JoinWaitlist(ctx context.Context, contact Contact, partySize PartySize) (WaitlistEntry, error) {
	var joined WaitlistEntry
	operationError := contact.validate()
	if operationError == nil && partySize.IsZero() {
		operationError = newValidationError(fieldPartySize, messageInvalidGuests, ErrInvalidPartySize)
	}
	if operationError == nil {
		addedAt := service.nowFn()
		service.waitlistMutex.Lock()
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			tail, err := transactionStore.MaxWaitlistPosition(ctx)
			if err != nil {
				return err
			}
			entry, err := transactionStore.InsertWaitlistEntry(ctx, WaitlistEntryInput{
				Contact:   contact,
				PartySize: partySize,
				Position:  tail + 1,
				AddedAt:   addedAt,
			})
			if err != nil {
				return err
			}
			joined = entry
			return nil
		})
		service.waitlistMutex.Unlock()
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationJoinWaitlist,
		Contact:   contact,
		Position:  joined.Position(),
		Error:     operationError,
	})
	if operationError != nil {
		return WaitlistEntry{}, operationError
	}
	service.notify(ctx, Event{Type: EventWaitlistJoined, Contact: contact, Position: joined.Position()})
	return joined, nil
}

// WaitlistPosition returns the contact's current 1-based position.
func (service *Service) WaitlistPosition(ctx context.Context, contact Contact) (int, error) {
	if err := contact.validate(); err != nil {
		return 0, err
	}
	entry, err := service.store.FindWaitlistEntry(ctx, contact)
	if err != nil {
		return 0, err
	}
	return entry.Position(), nil
}

// RemoveFromWaitlist drops every entry with phone and closes the gaps.
func (service *Service) RemoveFromWaitlist(ctx context.Context, phone PhoneNumber) (bool, error) {
	removed, err := service.removeWaitlistByPhone(ctx, phone)
	service.logOperation(ctx, OperationLog{
		Operation: operationLeaveWaitlist,
		Phone:     phone,
		Count:     int64(removed),
		Error:     err,
	})
	return service.finishWaitlistRemoval(ctx, phone, removed, err)
}

func (service *Service) removeWaitlistByPhone(ctx context.Context, phone PhoneNumber) (int, error) {
	if phone.IsZero() {
		return 0, newValidationError(fieldPhone, messageInvalidPhone, ErrInvalidPhoneNumber)
	}
	var removedCount int
	service.waitlistMutex.Lock()
	defer service.waitlistMutex.Unlock()
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		positions, err := transactionStore.DeleteWaitlistEntriesByPhone(ctx, phone)
		if err != nil {
			return err
		}
		// Highest first so each shift sees positions that are still unshifted.
		slices.Sort(positions)
		slices.Reverse(positions)
		for _, position := range positions {
			if err := transactionStore.ShiftWaitlistPositions(ctx, position); err != nil {
				return err
			}
		}
		removedCount = len(positions)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removedCount, nil
}

func (service *Service) finishWaitlistRemoval(ctx context.Context, phone PhoneNumber, removed int, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if removed > 0 {
		service.notify(ctx, Event{Type: EventWaitlistLeft, Phone: phone, Count: int64(removed)})
	}
	return removed > 0, nil
}

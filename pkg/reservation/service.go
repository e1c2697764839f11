package reservation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"
)

// Service contains the reservation rules over a Store.
type Service struct {
	store            Store
	nowFn            func() time.Time
	logger           OperationLogger
	notifier         Notifier
	reservationMutex sync.Mutex
	waitlistMutex    sync.Mutex
}

// NewService wires a Service. The clock's location is the restaurant's time zone.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// SearchStatus tells which kind of record a search found.
type SearchStatus string

const (
	SearchStatusActive     SearchStatus = "active"
	SearchStatusWaitlisted SearchStatus = "waitlisted"
)

// SearchResult is either an active reservation or a waitlist entry.
type SearchResult struct {
	Status        SearchStatus
	Reservation   Reservation
	WaitlistEntry WaitlistEntry
}

// Slots returns the availability grid of date.
func (service *Service) Slots(ctx context.Context, date ReservationDate) ([]Slot, error) {
	if date.IsZero() {
		return nil, newValidationError(fieldDate, messageMissingDate, ErrMissingDate)
	}
	booked, err := service.store.ListBookedTimes(ctx, date)
	if err != nil {
		return nil, err
	}
	return GenerateSlots(date, service.now(), booked), nil
}

// Book stores a reservation for a free, future slot.
func (service *Service) Book(ctx context.Context, details ReservationDetails) (Reservation, error) {
	now := service.now()
	var booked Reservation
	operationError := checkBookable(details, now)
	if operationError == nil {
		service.reservationMutex.Lock()
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			if err := ensureNoActiveReservation(ctx, transactionStore, details.Contact, now, ReservationID{}); err != nil {
				return err
			}
			if err := ensureSlotFree(ctx, transactionStore, details, now, ReservationID{}); err != nil {
				return err
			}
			inserted, err := transactionStore.InsertReservation(ctx, details)
			if err != nil {
				return err
			}
			booked = inserted
			return nil
		})
		service.reservationMutex.Unlock()
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationBook,
		Contact:       details.Contact,
		ReservationID: booked.ID(),
		Slot:          details.Slot(),
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	service.notify(ctx, Event{
		Type:          EventReservationBooked,
		ReservationID: booked.ID(),
		Contact:       booked.Contact(),
		Slot:          booked.Slot(),
	})
	return booked, nil
}

// Search finds the contact's active reservation, falling back to its waitlist entry.
// A contact with only past reservations gets ErrNoUpcomingReservation.
func (service *Service) Search(ctx context.Context, contact Contact) (SearchResult, error) {
	if err := contact.validate(); err != nil {
		return SearchResult{}, err
	}
	now := service.now()
	reservations, err := service.store.FindReservationsByContact(ctx, contact)
	if err != nil {
		return SearchResult{}, err
	}
	for _, candidate := range reservations {
		if isActive(candidate, now) {
			return SearchResult{Status: SearchStatusActive, Reservation: candidate}, nil
		}
	}
	entry, err := service.store.FindWaitlistEntry(ctx, contact)
	if err == nil {
		return SearchResult{Status: SearchStatusWaitlisted, WaitlistEntry: entry}, nil
	}
	if !errors.Is(err, ErrWaitlistEntryNotFound) {
		return SearchResult{}, err
	}
	if len(reservations) > 0 {
		return SearchResult{}, ErrNoUpcomingReservation
	}
	return SearchResult{}, ErrReservationNotFound
}

// Update replaces every editable field of the active reservation id held by owner.
// A reservation held by another contact reads as ErrReservationNotFound.
// The slot check is skipped when date and time are unchanged.
func (service *Service) Update(ctx context.Context, owner Contact, id ReservationID, details ReservationDetails) (Reservation, error) {
	now := service.now()
	var updated Reservation
	operationError := owner.validate()
	if operationError == nil {
		operationError = checkBookable(details, now)
	}
	if operationError == nil && id.IsZero() {
		operationError = fmt.Errorf("%w: missing", ErrInvalidReservationID)
	}
	if operationError == nil {
		service.reservationMutex.Lock()
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			current, err := transactionStore.GetReservation(ctx, id)
			if err != nil {
				return err
			}
			if current.Contact() != owner {
				return ErrReservationNotFound
			}
			if !isActive(current, now) {
				return ErrReservationNotActive
			}
			if current.Contact() != details.Contact {
				if err := ensureNoActiveReservation(ctx, transactionStore, details.Contact, now, id); err != nil {
					return err
				}
			}
			if current.Slot() != details.Slot() {
				if err := ensureSlotFree(ctx, transactionStore, details, now, id); err != nil {
					return err
				}
			}
			replacement, err := NewReservation(id, details)
			if err != nil {
				return err
			}
			if err := transactionStore.UpdateReservation(ctx, replacement); err != nil {
				return err
			}
			updated = replacement
			return nil
		})
		service.reservationMutex.Unlock()
	}
	service.logOperation(ctx, OperationLog{
		Operation:     operationUpdate,
		Contact:       details.Contact,
		ReservationID: id,
		Slot:          details.Slot(),
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	service.notify(ctx, Event{
		Type:          EventReservationUpdated,
		ReservationID: updated.ID(),
		Contact:       updated.Contact(),
		Slot:          updated.Slot(),
	})
	return updated, nil
}

// Cancel removes the contact's upcoming reservations. Cancelling nothing is not an error.
func (service *Service) Cancel(ctx context.Context, contact Contact) (bool, error) {
	var removed int64
	operationError := contact.validate()
	if operationError == nil {
		service.reservationMutex.Lock()
		removed, operationError = service.store.DeleteReservationsByContact(ctx, contact, SlotKeyAt(service.now()))
		service.reservationMutex.Unlock()
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationCancel,
		Contact:   contact,
		Count:     removed,
		Error:     operationError,
	})
	if operationError != nil {
		return false, operationError
	}
	if removed > 0 {
		service.notify(ctx, Event{Type: EventReservationCancelled, Contact: contact, Count: removed})
	}
	return removed > 0, nil
}

// History yields the contact's reservations strictly before now, oldest first.
func (service *Service) History(ctx context.Context, contact Contact) (iter.Seq[Reservation], error) {
	if err := contact.validate(); err != nil {
		return nil, err
	}
	reservations, err := service.store.ListReservationsBefore(ctx, contact, SlotKeyAt(service.now()))
	if err != nil {
		return nil, err
	}
	return slices.Values(reservations), nil
}

func (service *Service) now() time.Time {
	return service.nowFn().Truncate(time.Minute)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func (service *Service) notify(ctx context.Context, event Event) {
	if service.notifier == nil {
		return
	}
	event.OccurredAt = service.nowFn()
	if err := service.notifier.Notify(ctx, event); err != nil {
		service.logOperation(ctx, OperationLog{
			Operation:     operationNotify,
			Contact:       event.Contact,
			Phone:         event.Phone,
			ReservationID: event.ReservationID,
			Slot:          event.Slot,
			Error:         err,
		})
	}
}

func checkBookable(details ReservationDetails, now time.Time) error {
	if err := details.validate(); err != nil {
		return err
	}
	moment := details.Date.At(details.Time.Minutes(), now.Location())
	if !moment.After(now) {
		return newValidationError(fieldTime, messagePastDateTime, ErrPastDateTime)
	}
	return nil
}

func isActive(reservation Reservation, now time.Time) bool {
	return !reservation.Slot().Before(SlotKeyAt(now))
}

func ensureNoActiveReservation(ctx context.Context, store Store, contact Contact, now time.Time, exclude ReservationID) error {
	existing, err := store.FindReservationsByContact(ctx, contact)
	if err != nil {
		return err
	}
	for _, candidate := range existing {
		if candidate.ID() != exclude && isActive(candidate, now) {
			return ErrActiveReservationExists
		}
	}
	return nil
}

func ensureSlotFree(ctx context.Context, store Store, details ReservationDetails, now time.Time, exclude ReservationID) error {
	if classifySlot(details.Date, details.Time, now, false) == SlotStatusPast {
		return ErrPastSlot
	}
	occupant, err := store.FindReservationAt(ctx, details.Slot())
	if errors.Is(err, ErrReservationNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if occupant.ID() != exclude {
		return ErrSlotTaken
	}
	return nil
}

package reservation

import "context"

// ListAllReservations returns every reservation ordered by date and time.
// Callers must have authenticated a manager first.
func (service *Service) ListAllReservations(ctx context.Context) ([]Reservation, error) {
	return service.store.ListReservations(ctx)
}

// ListAllWaitlist returns the queue ordered by position.
func (service *Service) ListAllWaitlist(ctx context.Context) ([]WaitlistEntry, error) {
	return service.store.ListWaitlist(ctx)
}

// AdminCancel removes every upcoming reservation booked under phone.
func (service *Service) AdminCancel(ctx context.Context, phone PhoneNumber) (bool, error) {
	var removed int64
	var operationError error
	if phone.IsZero() {
		operationError = newValidationError(fieldPhone, messageInvalidPhone, ErrInvalidPhoneNumber)
	} else {
		service.reservationMutex.Lock()
		removed, operationError = service.store.DeleteReservationsByPhone(ctx, phone, SlotKeyAt(service.now()))
		service.reservationMutex.Unlock()
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationAdminCancel,
		Phone:     phone,
		Count:     removed,
		Error:     operationError,
	})
	if operationError != nil {
		return false, operationError
	}
	if removed > 0 {
		service.notify(ctx, Event{Type: EventReservationCancelled, Phone: phone, Count: removed})
	}
	return removed > 0, nil
}

// AdminRemoveFromWaitlist removes phone from the queue on a manager's behalf.
func (service *Service) AdminRemoveFromWaitlist(ctx context.Context, phone PhoneNumber) (bool, error) {
	removed, err := service.removeWaitlistByPhone(ctx, phone)
	service.logOperation(ctx, OperationLog{
		Operation: operationAdminLeave,
		Phone:     phone,
		Count:     int64(removed),
		Error:     err,
	})
	return service.finishWaitlistRemoval(ctx, phone, removed, err)
}

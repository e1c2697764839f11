package reservation

import (
	"context"
	"errors"
	"testing"
)

func TestServiceLogsBookOperation(test *testing.T) {
	test.Parallel()
	logger := &recorderLogger{}
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"), WithOperationLogger(logger))
	alice := mustContact(test, aliceName, alicePhone)

	booked, err := service.Book(context.Background(), mustDetails(test, alice, 2, scenarioDate, "12:00 PM"))
	if err != nil {
		test.Fatalf("book: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationBook || entry.Contact != alice || entry.ReservationID != booked.ID() {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Slot.String() != "2025-03-01 12:00" {
		test.Fatalf("unexpected slot %s", entry.Slot.String())
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestServiceLogsErrorStatus(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.failures[methodMaxWaitlistPosition] = errStoreFailure
	logger := &recorderLogger{}
	service := mustNewService(test, store, mustMoment(test, "2025-03-01 09:00"), WithOperationLogger(logger))

	_, err := service.JoinWaitlist(context.Background(), mustContact(test, bobName, bobPhone), mustPartySize(test, 2))
	if err == nil {
		test.Fatalf("expected error")
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	if logger.entries[0].Status != operationStatusError || !errors.Is(logger.entries[0].Error, errStoreFailure) {
		test.Fatalf("expected error log entry, got %+v", logger.entries[0])
	}
}

func TestServiceNotifiesCommittedChanges(test *testing.T) {
	test.Parallel()
	notifier := &recorderNotifier{}
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"), WithNotifier(notifier))
	ctx := context.Background()
	alice := mustContact(test, aliceName, alicePhone)

	if _, err := service.Book(ctx, mustDetails(test, alice, 2, scenarioDate, "12:00 PM")); err != nil {
		test.Fatalf("book: %v", err)
	}
	if _, err := service.Book(ctx, mustDetails(test, mustContact(test, bobName, bobPhone), 2, scenarioDate, "12:00 PM")); !errors.Is(err, ErrSlotTaken) {
		test.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := service.Cancel(ctx, alice); err != nil {
		test.Fatalf("cancel: %v", err)
	}
	if len(notifier.events) != 2 {
		test.Fatalf("expected two events, got %+v", notifier.events)
	}
	if notifier.events[0].Type != EventReservationBooked || notifier.events[1].Type != EventReservationCancelled {
		test.Fatalf("unexpected event types %s, %s", notifier.events[0].Type, notifier.events[1].Type)
	}
	if notifier.events[1].Count != 1 || notifier.events[1].OccurredAt.IsZero() {
		test.Fatalf("unexpected cancel event %+v", notifier.events[1])
	}
}

func TestNotifierFailureIsLoggedNotReturned(test *testing.T) {
	test.Parallel()
	notifier := &recorderNotifier{err: errors.New("broker down")}
	logger := &recorderLogger{}
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"), WithNotifier(notifier), WithOperationLogger(logger))

	if _, err := service.JoinWaitlist(context.Background(), mustContact(test, bobName, bobPhone), mustPartySize(test, 2)); err != nil {
		test.Fatalf("join: %v", err)
	}
	if len(logger.entries) != 2 || logger.entries[1].Operation != operationNotify || logger.entries[1].Status != operationStatusError {
		test.Fatalf("expected notify failure log, got %+v", logger.entries)
	}
}

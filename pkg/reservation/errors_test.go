package reservation

import (
	"errors"
	"testing"
)

func TestWrapErrorFormatsAndUnwraps(test *testing.T) {
	test.Parallel()
	wrapped := WrapError("service", "book", "slot_taken", ErrSlotTaken)
	if wrapped.Error() != "service.book.slot_taken: slot already taken" {
		test.Fatalf("unexpected message %q", wrapped.Error())
	}
	if !errors.Is(wrapped, ErrSlotTaken) {
		test.Fatalf("expected wrapped error to match ErrSlotTaken")
	}
	if WrapError("service", "book", "noop", nil) != nil {
		test.Fatalf("expected nil for nil cause")
	}
}

func TestIsStorageError(test *testing.T) {
	test.Parallel()
	if !IsStorageError(WrapStorageError("reservation", "insert", errors.New("disk full"))) {
		test.Fatalf("expected storage error")
	}
	if IsStorageError(WrapError("service", "book", "slot_taken", ErrSlotTaken)) {
		test.Fatalf("domain error must not be a storage error")
	}
	if IsStorageError(WrapStorageError("reservation", "insert", ErrSlotTaken)) {
		test.Fatalf("slot conflict must not be a storage error")
	}
	if IsStorageError(ErrSlotTaken) {
		test.Fatalf("sentinel must not be a storage error")
	}
}

func TestNotFoundFamily(test *testing.T) {
	test.Parallel()
	for _, err := range []error{ErrReservationNotFound, ErrWaitlistEntryNotFound, ErrNoUpcomingReservation, ErrManagerNotFound} {
		if !errors.Is(err, ErrNotFound) {
			test.Fatalf("expected %v to be a not found error", err)
		}
	}
	if errors.Is(ErrNoUpcomingReservation, ErrReservationNotFound) {
		test.Fatalf("no-upcoming must stay distinct from plain not found")
	}
}

package reservation

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestJoinWaitlistAppendsAtTail(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	now := mustMoment(test, "2025-03-01 09:00")
	service := mustNewService(test, store, now)
	ctx := context.Background()

	phones := []string{"555-000-0001", "555-000-0002", "555-000-0003"}
	for index, phone := range phones {
		entry, err := service.JoinWaitlist(ctx, mustContact(test, "Guest", phone), mustPartySize(test, 2))
		if err != nil {
			test.Fatalf("join %s: %v", phone, err)
		}
		if entry.Position() != index+1 {
			test.Fatalf("expected position %d, got %d", index+1, entry.Position())
		}
		if !entry.AddedAt().Equal(now) {
			test.Fatalf("expected added at %v, got %v", now, entry.AddedAt())
		}
	}
	position, err := service.WaitlistPosition(ctx, mustContact(test, "Guest", "555-000-0003"))
	if err != nil || position != 3 {
		test.Fatalf("expected position 3, got %d (%v)", position, err)
	}
}

func TestRemoveFromWaitlistCompactsPositions(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store, mustMoment(test, "2025-03-01 09:00"))
	ctx := context.Background()
	phones := []string{"555-000-0001", "555-000-0002", "555-000-0003", "555-000-0002", "555-000-0005"}
	for _, phone := range phones {
		if _, err := service.JoinWaitlist(ctx, mustContact(test, "Guest", phone), mustPartySize(test, 2)); err != nil {
			test.Fatalf("join %s: %v", phone, err)
		}
	}

	removed, err := service.RemoveFromWaitlist(ctx, mustPhone(test, "555-000-0002"))
	if err != nil || !removed {
		test.Fatalf("remove: %v (removed=%v)", err, removed)
	}
	if got := store.positions(); !slices.Equal(got, []int{1, 2, 3}) {
		test.Fatalf("expected contiguous positions, got %v", got)
	}
	entries, err := service.ListAllWaitlist(ctx)
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	var order []string
	for _, entry := range entries {
		order = append(order, entry.Contact().Phone().String())
	}
	if !slices.Equal(order, []string{"555-000-0001", "555-000-0003", "555-000-0005"}) {
		test.Fatalf("expected relative order preserved, got %v", order)
	}

	entry, err := service.JoinWaitlist(ctx, mustContact(test, "Late", "555-000-0009"), mustPartySize(test, 1))
	if err != nil || entry.Position() != 4 {
		test.Fatalf("expected new tail 4, got %d (%v)", entry.Position(), err)
	}
}

func TestRemoveFromWaitlistUnknownPhone(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"))
	removed, err := service.RemoveFromWaitlist(context.Background(), mustPhone(test, "555-999-9999"))
	if err != nil || removed {
		test.Fatalf("expected nothing removed, got %v (%v)", removed, err)
	}
}

func TestWaitlistPositionNotFound(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"))
	_, err := service.WaitlistPosition(context.Background(), mustContact(test, bobName, bobPhone))
	if !errors.Is(err, ErrWaitlistEntryNotFound) {
		test.Fatalf("expected ErrWaitlistEntryNotFound, got %v", err)
	}
}

func TestJoinWaitlistValidatesInput(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(test), mustMoment(test, "2025-03-01 09:00"))
	ctx := context.Background()
	if _, err := service.JoinWaitlist(ctx, Contact{}, mustPartySize(test, 2)); !errors.Is(err, ErrInvalidCustomerName) {
		test.Fatalf("expected ErrInvalidCustomerName, got %v", err)
	}
	if _, err := service.JoinWaitlist(ctx, mustContact(test, bobName, bobPhone), PartySize{}); !errors.Is(err, ErrInvalidPartySize) {
		test.Fatalf("expected ErrInvalidPartySize, got %v", err)
	}
	if _, err := service.RemoveFromWaitlist(ctx, PhoneNumber{}); !errors.Is(err, ErrInvalidPhoneNumber) {
		test.Fatalf("expected ErrInvalidPhoneNumber, got %v", err)
	}
}

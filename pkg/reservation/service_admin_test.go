package reservation

import (
	"context"
	"testing"
)

func TestAdminListsAndCancelsByPhone(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store, mustMoment(test, "2025-03-01 09:00"))
	ctx := context.Background()
	if _, err := service.Book(ctx, mustDetails(test, mustContact(test, bobName, bobPhone), 2, "2025-03-02", "12:00 PM")); err != nil {
		test.Fatalf("book bob: %v", err)
	}
	if _, err := service.Book(ctx, mustDetails(test, mustContact(test, aliceName, alicePhone), 2, scenarioDate, "12:00 PM")); err != nil {
		test.Fatalf("book alice: %v", err)
	}

	all, err := service.ListAllReservations(ctx)
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Contact().Name().String() != aliceName {
		test.Fatalf("expected alice first by date, got %+v", all)
	}

	cancelled, err := service.AdminCancel(ctx, mustPhone(test, bobPhone))
	if err != nil || !cancelled {
		test.Fatalf("admin cancel: %v (cancelled=%v)", err, cancelled)
	}
	cancelled, err = service.AdminCancel(ctx, mustPhone(test, bobPhone))
	if err != nil || cancelled {
		test.Fatalf("repeat admin cancel: %v (cancelled=%v)", err, cancelled)
	}
	if len(store.reservations) != 1 {
		test.Fatalf("expected one reservation left, got %d", len(store.reservations))
	}
}

func TestAdminRemoveFromWaitlist(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store, mustMoment(test, "2025-03-01 09:00"))
	ctx := context.Background()
	for _, contact := range []Contact{mustContact(test, aliceName, alicePhone), mustContact(test, bobName, bobPhone)} {
		if _, err := service.JoinWaitlist(ctx, contact, mustPartySize(test, 2)); err != nil {
			test.Fatalf("join: %v", err)
		}
	}
	removed, err := service.AdminRemoveFromWaitlist(ctx, mustPhone(test, alicePhone))
	if err != nil || !removed {
		test.Fatalf("admin remove: %v (removed=%v)", err, removed)
	}
	position, err := service.WaitlistPosition(ctx, mustContact(test, bobName, bobPhone))
	if err != nil || position != 1 {
		test.Fatalf("expected bob promoted to 1, got %d (%v)", position, err)
	}
}

package reservation

import (
	"context"
	"slices"
	"sort"
	"testing"
	"time"
)

const (
	methodInsertReservation   = "InsertReservation"
	methodGetReservation      = "GetReservation"
	methodFindReservationAt   = "FindReservationAt"
	methodUpdateReservation   = "UpdateReservation"
	methodListBookedTimes     = "ListBookedTimes"
	methodFindByContact       = "FindReservationsByContact"
	methodListBefore          = "ListReservationsBefore"
	methodDeleteByContact     = "DeleteReservationsByContact"
	methodDeleteByPhone       = "DeleteReservationsByPhone"
	methodListReservations    = "ListReservations"
	methodMaxWaitlistPosition = "MaxWaitlistPosition"
	methodInsertWaitlist      = "InsertWaitlistEntry"
	methodFindWaitlist        = "FindWaitlistEntry"
	methodDeleteWaitlist      = "DeleteWaitlistEntriesByPhone"
	methodShiftWaitlist       = "ShiftWaitlistPositions"
	methodListWaitlist        = "ListWaitlist"
	methodWithTx              = "WithTx"
)

type stubStore struct {
	nextID       int64
	reservations map[int64]Reservation
	waitlist     []WaitlistEntry
	failures     map[string]error
	calls        []string
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		reservations: make(map[int64]Reservation),
		failures:     make(map[string]error),
	}
}

func (store *stubStore) fail(method string) error {
	store.calls = append(store.calls, method)
	return store.failures[method]
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	if err := store.fail(methodWithTx); err != nil {
		return err
	}
	return fn(ctx, store)
}

func (store *stubStore) InsertReservation(_ context.Context, details ReservationDetails) (Reservation, error) {
	if err := store.fail(methodInsertReservation); err != nil {
		return Reservation{}, err
	}
	for _, existing := range store.reservations {
		if existing.Slot() == details.Slot() {
			return Reservation{}, ErrSlotTaken
		}
	}
	store.nextID++
	id, err := NewReservationID(store.nextID)
	if err != nil {
		return Reservation{}, err
	}
	inserted, err := NewReservation(id, details)
	if err != nil {
		return Reservation{}, err
	}
	store.reservations[store.nextID] = inserted
	return inserted, nil
}

func (store *stubStore) GetReservation(_ context.Context, id ReservationID) (Reservation, error) {
	if err := store.fail(methodGetReservation); err != nil {
		return Reservation{}, err
	}
	existing, ok := store.reservations[id.Int64()]
	if !ok {
		return Reservation{}, ErrReservationNotFound
	}
	return existing, nil
}

func (store *stubStore) FindReservationAt(_ context.Context, slot SlotKey) (Reservation, error) {
	if err := store.fail(methodFindReservationAt); err != nil {
		return Reservation{}, err
	}
	for _, existing := range store.reservations {
		if existing.Slot() == slot {
			return existing, nil
		}
	}
	return Reservation{}, ErrReservationNotFound
}

func (store *stubStore) UpdateReservation(_ context.Context, reservation Reservation) error {
	if err := store.fail(methodUpdateReservation); err != nil {
		return err
	}
	if _, ok := store.reservations[reservation.ID().Int64()]; !ok {
		return ErrReservationNotFound
	}
	for id, existing := range store.reservations {
		if id != reservation.ID().Int64() && existing.Slot() == reservation.Slot() {
			return ErrSlotTaken
		}
	}
	store.reservations[reservation.ID().Int64()] = reservation
	return nil
}

func (store *stubStore) ListBookedTimes(_ context.Context, date ReservationDate) ([]SlotTime, error) {
	if err := store.fail(methodListBookedTimes); err != nil {
		return nil, err
	}
	var booked []SlotTime
	for _, existing := range store.sorted() {
		if existing.Date() == date {
			booked = append(booked, existing.Time())
		}
	}
	return booked, nil
}

func (store *stubStore) FindReservationsByContact(_ context.Context, contact Contact) ([]Reservation, error) {
	if err := store.fail(methodFindByContact); err != nil {
		return nil, err
	}
	var matches []Reservation
	for _, existing := range store.sorted() {
		if existing.Contact() == contact {
			matches = append(matches, existing)
		}
	}
	return matches, nil
}

func (store *stubStore) ListReservationsBefore(_ context.Context, contact Contact, cutoff SlotKey) ([]Reservation, error) {
	if err := store.fail(methodListBefore); err != nil {
		return nil, err
	}
	var matches []Reservation
	for _, existing := range store.sorted() {
		if existing.Contact() == contact && existing.Slot().Before(cutoff) {
			matches = append(matches, existing)
		}
	}
	return matches, nil
}

func (store *stubStore) DeleteReservationsByContact(_ context.Context, contact Contact, notBefore SlotKey) (int64, error) {
	if err := store.fail(methodDeleteByContact); err != nil {
		return 0, err
	}
	return store.deleteWhere(func(existing Reservation) bool {
		return existing.Contact() == contact && !existing.Slot().Before(notBefore)
	}), nil
}

func (store *stubStore) DeleteReservationsByPhone(_ context.Context, phone PhoneNumber, notBefore SlotKey) (int64, error) {
	if err := store.fail(methodDeleteByPhone); err != nil {
		return 0, err
	}
	return store.deleteWhere(func(existing Reservation) bool {
		return existing.Contact().Phone() == phone && !existing.Slot().Before(notBefore)
	}), nil
}

func (store *stubStore) ListReservations(_ context.Context) ([]Reservation, error) {
	if err := store.fail(methodListReservations); err != nil {
		return nil, err
	}
	return store.sorted(), nil
}

func (store *stubStore) MaxWaitlistPosition(_ context.Context) (int, error) {
	if err := store.fail(methodMaxWaitlistPosition); err != nil {
		return 0, err
	}
	highest := 0
	for _, entry := range store.waitlist {
		highest = max(highest, entry.Position())
	}
	return highest, nil
}

func (store *stubStore) InsertWaitlistEntry(_ context.Context, input WaitlistEntryInput) (WaitlistEntry, error) {
	if err := store.fail(methodInsertWaitlist); err != nil {
		return WaitlistEntry{}, err
	}
	entry, err := NewWaitlistEntry(input.Contact, input.PartySize, input.Position, input.AddedAt)
	if err != nil {
		return WaitlistEntry{}, err
	}
	store.waitlist = append(store.waitlist, entry)
	return entry, nil
}

func (store *stubStore) FindWaitlistEntry(_ context.Context, contact Contact) (WaitlistEntry, error) {
	if err := store.fail(methodFindWaitlist); err != nil {
		return WaitlistEntry{}, err
	}
	for _, entry := range store.orderedWaitlist() {
		if entry.Contact() == contact {
			return entry, nil
		}
	}
	return WaitlistEntry{}, ErrWaitlistEntryNotFound
}

func (store *stubStore) DeleteWaitlistEntriesByPhone(_ context.Context, phone PhoneNumber) ([]int, error) {
	if err := store.fail(methodDeleteWaitlist); err != nil {
		return nil, err
	}
	var removed []int
	kept := store.waitlist[:0]
	for _, entry := range store.waitlist {
		if entry.Contact().Phone() == phone {
			removed = append(removed, entry.Position())
			continue
		}
		kept = append(kept, entry)
	}
	store.waitlist = kept
	return removed, nil
}

func (store *stubStore) ShiftWaitlistPositions(_ context.Context, above int) error {
	if err := store.fail(methodShiftWaitlist); err != nil {
		return err
	}
	for index, entry := range store.waitlist {
		if entry.position > above {
			entry.position--
			store.waitlist[index] = entry
		}
	}
	return nil
}

func (store *stubStore) ListWaitlist(_ context.Context) ([]WaitlistEntry, error) {
	if err := store.fail(methodListWaitlist); err != nil {
		return nil, err
	}
	return store.orderedWaitlist(), nil
}

func (store *stubStore) sorted() []Reservation {
	all := make([]Reservation, 0, len(store.reservations))
	for _, existing := range store.reservations {
		all = append(all, existing)
	}
	sort.Slice(all, func(left, right int) bool {
		return all[left].Slot().Before(all[right].Slot())
	})
	return all
}

func (store *stubStore) orderedWaitlist() []WaitlistEntry {
	ordered := slices.Clone(store.waitlist)
	sort.Slice(ordered, func(left, right int) bool {
		return ordered[left].Position() < ordered[right].Position()
	})
	return ordered
}

func (store *stubStore) deleteWhere(match func(Reservation) bool) int64 {
	var removed int64
	for id, existing := range store.reservations {
		if match(existing) {
			delete(store.reservations, id)
			removed++
		}
	}
	return removed
}

func (store *stubStore) positions() []int {
	var positions []int
	for _, entry := range store.orderedWaitlist() {
		positions = append(positions, entry.Position())
	}
	return positions
}

type stubManagerStore struct {
	credentials map[string]ManagerCredential
	getErr      error
}

func newStubManagerStore(test *testing.T) *stubManagerStore {
	test.Helper()
	return &stubManagerStore{credentials: make(map[string]ManagerCredential)}
}

func (store *stubManagerStore) CreateManager(_ context.Context, credential ManagerCredential) error {
	if _, exists := store.credentials[credential.LoginID().String()]; exists {
		return ErrManagerExists
	}
	store.credentials[credential.LoginID().String()] = credential
	return nil
}

func (store *stubManagerStore) GetManager(_ context.Context, loginID LoginID) (ManagerCredential, error) {
	if store.getErr != nil {
		return ManagerCredential{}, store.getErr
	}
	credential, ok := store.credentials[loginID.String()]
	if !ok {
		return ManagerCredential{}, ErrManagerNotFound
	}
	return credential, nil
}

type recorderLogger struct {
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.entries = append(logger.entries, entry)
}

type recorderNotifier struct {
	events []Event
	err    error
}

func (notifier *recorderNotifier) Notify(_ context.Context, event Event) error {
	notifier.events = append(notifier.events, event)
	return notifier.err
}

func fixedClock(moment time.Time) func() time.Time {
	return func() time.Time { return moment }
}

func mustNewService(test *testing.T, store Store, now time.Time, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, fixedClock(now), options...)
	if err != nil {
		test.Fatalf("service init: %v", err)
	}
	return service
}

func mustContact(test *testing.T, name string, phone string) Contact {
	test.Helper()
	contact, err := NewContact(name, phone)
	if err != nil {
		test.Fatalf("contact: %v", err)
	}
	return contact
}

func mustPhone(test *testing.T, raw string) PhoneNumber {
	test.Helper()
	phone, err := NewPhoneNumber(raw)
	if err != nil {
		test.Fatalf("phone: %v", err)
	}
	return phone
}

func mustPartySize(test *testing.T, raw int) PartySize {
	test.Helper()
	size, err := NewPartySize(raw)
	if err != nil {
		test.Fatalf("party size: %v", err)
	}
	return size
}

func mustDate(test *testing.T, raw string) ReservationDate {
	test.Helper()
	date, err := ParseReservationDate(raw)
	if err != nil {
		test.Fatalf("date: %v", err)
	}
	return date
}

func mustSlotTime(test *testing.T, raw string) SlotTime {
	test.Helper()
	slotTime, err := ParseSlotTime(raw)
	if err != nil {
		test.Fatalf("slot time: %v", err)
	}
	return slotTime
}

func mustMoment(test *testing.T, raw string) time.Time {
	test.Helper()
	moment, err := time.Parse("2006-01-02 15:04", raw)
	if err != nil {
		test.Fatalf("moment: %v", err)
	}
	return moment
}

func mustDetails(test *testing.T, contact Contact, partySize int, date string, slot string) ReservationDetails {
	test.Helper()
	return ReservationDetails{
		Contact:   contact,
		PartySize: mustPartySize(test, partySize),
		Date:      mustDate(test, date),
		Time:      mustSlotTime(test, slot),
	}
}

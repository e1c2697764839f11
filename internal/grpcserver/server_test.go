package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	reservationv1 "github.com/MarkoPoloResearchLab/tablebook/api/reservation/v1"
	"github.com/MarkoPoloResearchLab/tablebook/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	bufconnSize = 1 << 20
	testDate    = "2025-03-01"
	alicePhone  = "555-123-4567"
	bobPhone    = "555-987-6543"
)

func startReservationClient(test *testing.T) reservationv1.ReservationServiceClient {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		test.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	test.Cleanup(func() { _ = sqlDB.Close() })
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	service, err := reservation.NewService(gormstore.New(db), func() time.Time { return now })
	if err != nil {
		test.Fatalf("service: %v", err)
	}

	listener := bufconn.Listen(bufconnSize)
	grpcServer := NewServer(NewReservationServiceServer(service, zap.NewNop()), zap.NewNop())
	go func() {
		if serveErr := grpcServer.Serve(listener); serveErr != nil {
			test.Logf("grpc server error: %v", serveErr)
		}
	}()
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		test.Fatalf("grpc client: %v", err)
	}
	test.Cleanup(func() {
		_ = conn.Close()
		grpcServer.Stop()
	})
	return reservationv1.NewReservationServiceClient(conn)
}

func requireCode(test *testing.T, err error, expected codes.Code, message string) {
	test.Helper()
	if status.Code(err) != expected {
		test.Fatalf("expected %s, got %v", expected, err)
	}
	if message != "" && status.Convert(err).Message() != message {
		test.Fatalf("expected message %q, got %q", message, status.Convert(err).Message())
	}
}

func TestReservationLifecycleOverGRPC(test *testing.T) {
	test.Parallel()
	client := startReservationClient(test)
	ctx := context.Background()

	booked, err := client.Book(ctx, &reservationv1.BookRequest{Name: "Alice", Phone: alicePhone, PartySize: 2, Date: testDate, Time: "12:00 PM"})
	if err != nil {
		test.Fatalf("alice book: %v", err)
	}
	if booked.Status != string(reservation.BookingStatusBooked) || booked.Reservation == nil || booked.Reservation.Id == 0 {
		test.Fatalf("unexpected booking %+v", booked)
	}

	_, err = client.Book(ctx, &reservationv1.BookRequest{Name: "Bob", Phone: bobPhone, PartySize: 4, Date: testDate, Time: "12:00 PM"})
	requireCode(test, err, codes.AlreadyExists, errorSlotTaken)
	waitlisted, err := client.Book(ctx, &reservationv1.BookRequest{Name: "Bob", Phone: bobPhone, PartySize: 4, Date: testDate, Time: "12:00 PM", JoinWaitlist: true})
	if err != nil || waitlisted.Status != string(reservation.BookingStatusWaitlisted) || waitlisted.WaitlistEntry.Position != 1 {
		test.Fatalf("bob waitlist: %+v (%v)", waitlisted, err)
	}
	position, err := client.WaitlistPosition(ctx, &reservationv1.Contact{Name: "Bob", Phone: bobPhone})
	if err != nil || position.Position != 1 {
		test.Fatalf("bob position: %+v (%v)", position, err)
	}

	slots, err := client.Slots(ctx, &reservationv1.SlotsRequest{Date: testDate})
	if err != nil || len(slots.Slots) != 19 {
		test.Fatalf("slots: %+v (%v)", slots, err)
	}
	statuses := map[string]string{}
	for _, slot := range slots.Slots {
		statuses[slot.Time] = slot.Status
	}
	if statuses["12:00"] != string(reservation.SlotStatusBooked) || statuses["11:30"] != string(reservation.SlotStatusAvailable) {
		test.Fatalf("unexpected statuses %v", statuses)
	}

	found, err := client.Search(ctx, &reservationv1.Contact{Name: "Alice", Phone: alicePhone})
	if err != nil || found.Status != string(reservation.SearchStatusActive) || found.Reservation.Id != booked.Reservation.Id {
		test.Fatalf("alice search: %+v (%v)", found, err)
	}

	update := &reservationv1.UpdateRequest{
		Id:              booked.Reservation.Id,
		Owner:           &reservationv1.Contact{Name: "Mallory", Phone: "555-666-6666"},
		Name:            "Mallory",
		Phone:           "555-666-6666",
		PartySize:       9,
		Date:            testDate,
		Time:            "12:00 PM",
		SpecialRequests: "",
	}
	_, err = client.Update(ctx, update)
	requireCode(test, err, codes.NotFound, errorNotFound)

	update.Owner = &reservationv1.Contact{Name: "Alice", Phone: alicePhone}
	update.Name, update.Phone, update.PartySize = "Alice", alicePhone, 3
	update.Time = "6:30 PM"
	update.SpecialRequests = "window seat"
	updated, err := client.Update(ctx, update)
	if err != nil || updated.Reservation.Time != "18:30" || updated.Reservation.PartySize != 3 {
		test.Fatalf("alice update: %+v (%v)", updated, err)
	}

	history, err := client.History(ctx, &reservationv1.Contact{Name: "Alice", Phone: alicePhone})
	if err != nil || len(history.Reservations) != 0 {
		test.Fatalf("history: %+v (%v)", history, err)
	}
	cancelled, err := client.Cancel(ctx, &reservationv1.Contact{Name: "Alice", Phone: alicePhone})
	if err != nil || !cancelled.Cancelled {
		test.Fatalf("cancel: %+v (%v)", cancelled, err)
	}
	_, err = client.Search(ctx, &reservationv1.Contact{Name: "Alice", Phone: alicePhone})
	requireCode(test, err, codes.NotFound, errorNotFound)

	left, err := client.LeaveWaitlist(ctx, &reservationv1.LeaveWaitlistRequest{Phone: bobPhone})
	if err != nil || !left.Removed {
		test.Fatalf("leave waitlist: %+v (%v)", left, err)
	}
	_, err = client.WaitlistPosition(ctx, &reservationv1.Contact{Name: "Bob", Phone: bobPhone})
	requireCode(test, err, codes.NotFound, errorNotFound)
}

func TestInvalidRequestsOverGRPC(test *testing.T) {
	test.Parallel()
	client := startReservationClient(test)
	ctx := context.Background()

	testCases := []struct {
		name    string
		call    func() error
		code    codes.Code
		message string
	}{
		{
			name: "bad phone",
			call: func() error {
				_, err := client.Book(ctx, &reservationv1.BookRequest{Name: "Alice", Phone: "5551234567", PartySize: 2, Date: testDate, Time: "12:00 PM"})
				return err
			},
			code:    codes.InvalidArgument,
			message: "invalid_phone",
		},
		{
			name: "zero party",
			call: func() error {
				_, err := client.JoinWaitlist(ctx, &reservationv1.JoinWaitlistRequest{Name: "Alice", Phone: alicePhone})
				return err
			},
			code:    codes.InvalidArgument,
			message: "invalid_party_size",
		},
		{
			name: "bad date",
			call: func() error {
				_, err := client.Slots(ctx, &reservationv1.SlotsRequest{Date: "03/01/2025"})
				return err
			},
			code:    codes.InvalidArgument,
			message: "invalid_date",
		},
		{
			name: "missing id",
			call: func() error {
				_, err := client.Update(ctx, &reservationv1.UpdateRequest{Owner: &reservationv1.Contact{Name: "Alice", Phone: alicePhone}})
				return err
			},
			code:    codes.InvalidArgument,
			message: errorInvalidReservationID,
		},
		{
			name: "missing owner",
			call: func() error {
				_, err := client.Update(ctx, &reservationv1.UpdateRequest{Id: 1, Name: "Alice", Phone: alicePhone, PartySize: 2, Date: testDate, Time: "12:00 PM"})
				return err
			},
			code:    codes.InvalidArgument,
			message: "invalid_name",
		},
		{
			name: "past slot",
			call: func() error {
				_, err := client.Book(ctx, &reservationv1.BookRequest{Name: "Alice", Phone: alicePhone, PartySize: 2, Date: "2025-02-28", Time: "12:00 PM"})
				return err
			},
			code:    codes.InvalidArgument,
			message: "invalid_time",
		},
	}
	for _, testCase := range testCases {
		err := testCase.call()
		if status.Code(err) != testCase.code || status.Convert(err).Message() != testCase.message {
			test.Fatalf("%s: expected %s %q, got %v", testCase.name, testCase.code, testCase.message, err)
		}
	}
}

func TestMapToGRPCError(test *testing.T) {
	test.Parallel()
	server := NewReservationServiceServer(nil, zap.NewNop())
	testCases := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{name: "past slot", err: reservation.ErrPastSlot, code: codes.FailedPrecondition, message: errorPastSlot},
		{name: "active exists", err: reservation.ErrActiveReservationExists, code: codes.AlreadyExists, message: errorActiveExists},
		{name: "not active", err: reservation.ErrReservationNotActive, code: codes.FailedPrecondition, message: errorNotActive},
		{name: "no upcoming", err: reservation.ErrNoUpcomingReservation, code: codes.NotFound, message: errorNoUpcoming},
		{name: "waitlist missing", err: reservation.ErrWaitlistEntryNotFound, code: codes.NotFound, message: errorNotFound},
		{name: "storage", err: reservation.WrapStorageError("reservation", "insert", errors.New("disk full")), code: codes.Internal, message: errorStorage},
	}
	for _, testCase := range testCases {
		mapped := server.mapToGRPCError("test", testCase.err)
		if status.Code(mapped) != testCase.code || status.Convert(mapped).Message() != testCase.message {
			test.Fatalf("%s: expected %s %q, got %v", testCase.name, testCase.code, testCase.message, mapped)
		}
	}
}

package oplog

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustContact(test *testing.T) reservation.Contact {
	test.Helper()
	contact, err := reservation.NewContact("Ana", "555-111-2222")
	if err != nil {
		test.Fatalf("contact: %v", err)
	}
	return contact
}

func TestZapLoggerWritesFields(test *testing.T) {
	test.Parallel()

	core, recorded := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))
	id, err := reservation.NewReservationID(7)
	if err != nil {
		test.Fatalf("id: %v", err)
	}

	logger.LogOperation(context.Background(), reservation.OperationLog{
		Operation:     "book",
		Contact:       mustContact(test),
		ReservationID: id,
		Status:        "ok",
	})

	entries := recorded.All()
	if len(entries) != 1 {
		test.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		test.Fatalf("expected info level, got %s", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields[fieldOperation] != "book" || fields[fieldPhoneNumber] != "555-111-2222" || fields[fieldReservation] != int64(7) {
		test.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields[fieldSlot]; ok {
		test.Fatalf("zero slot should be omitted")
	}
}

func TestZapLoggerWarnsOnError(test *testing.T) {
	test.Parallel()

	core, recorded := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))
	logger.LogOperation(context.Background(), reservation.OperationLog{
		Operation: "cancel",
		Status:    "error",
		Error:     errors.New("boom"),
	})

	entries := recorded.FilterLevelExact(zapcore.WarnLevel).All()
	if len(entries) != 1 {
		test.Fatalf("expected 1 warn entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["error"] != "boom" {
		test.Fatalf("expected error field, got %v", entries[0].ContextMap())
	}
}

func TestMetricsLoggerCountsByStatus(test *testing.T) {
	test.Parallel()

	registry := prometheus.NewRegistry()
	metrics, err := NewMetricsLogger(registry)
	if err != nil {
		test.Fatalf("metrics: %v", err)
	}
	ctx := context.Background()
	metrics.LogOperation(ctx, reservation.OperationLog{Operation: "book", Status: "ok"})
	metrics.LogOperation(ctx, reservation.OperationLog{Operation: "book", Status: "ok"})
	metrics.LogOperation(ctx, reservation.OperationLog{Operation: "book", Error: errors.New("taken")})

	if value := testutil.ToFloat64(metrics.Counter().WithLabelValues("book", "ok")); value != 2 {
		test.Fatalf("expected 2 ok, got %v", value)
	}
	if value := testutil.ToFloat64(metrics.Counter().WithLabelValues("book", statusError)); value != 1 {
		test.Fatalf("expected 1 error, got %v", value)
	}
	if _, err := NewMetricsLogger(registry); err == nil {
		test.Fatalf("expected duplicate registration error")
	}
}

func TestMultiFansOut(test *testing.T) {
	test.Parallel()

	core, recorded := observer.New(zapcore.DebugLevel)
	registry := prometheus.NewRegistry()
	metrics, err := NewMetricsLogger(registry)
	if err != nil {
		test.Fatalf("metrics: %v", err)
	}
	multi := Multi{NewZapLogger(zap.New(core)), nil, metrics}
	multi.LogOperation(context.Background(), reservation.OperationLog{Operation: "join_waitlist", Status: "ok", Position: 3})

	if recorded.Len() != 1 {
		test.Fatalf("expected zap entry")
	}
	if value := testutil.ToFloat64(metrics.Counter().WithLabelValues("join_waitlist", "ok")); value != 1 {
		test.Fatalf("expected counter 1, got %v", value)
	}
}

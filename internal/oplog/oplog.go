// Package oplog provides reservation.OperationLogger implementations backed by zap and prometheus.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	logMessage        = "reservation operation"
	metricsNamespace  = "tablebook"
	metricsName       = "operations_total"
	labelOperation    = "operation"
	labelStatus       = "status"
	statusError       = "error"
	fieldOperation    = "operation"
	fieldStatus       = "status"
	fieldCustomerName = "customer_name"
	fieldPhoneNumber  = "phone_number"
	fieldLoginID      = "login_id"
	fieldReservation  = "reservation_id"
	fieldSlot         = "slot"
	fieldPosition     = "position"
	fieldCount        = "count"
)

// ZapLogger writes one structured entry per operation.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps a zap logger. A nil logger is replaced by zap.NewNop.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry reservation.OperationLog) {
	fields := []zap.Field{
		zap.String(fieldOperation, entry.Operation),
		zap.String(fieldStatus, entry.Status),
	}
	if !entry.Contact.IsZero() {
		fields = append(fields,
			zap.String(fieldCustomerName, entry.Contact.Name().String()),
			zap.String(fieldPhoneNumber, entry.Contact.Phone().String()),
		)
	} else if !entry.Phone.IsZero() {
		fields = append(fields, zap.String(fieldPhoneNumber, entry.Phone.String()))
	}
	if loginID := entry.LoginID.String(); loginID != "" {
		fields = append(fields, zap.String(fieldLoginID, loginID))
	}
	if !entry.ReservationID.IsZero() {
		fields = append(fields, zap.Int64(fieldReservation, entry.ReservationID.Int64()))
	}
	if !entry.Slot.IsZero() {
		fields = append(fields, zap.String(fieldSlot, entry.Slot.String()))
	}
	if entry.Position > 0 {
		fields = append(fields, zap.Int(fieldPosition, entry.Position))
	}
	if entry.Count > 0 {
		fields = append(fields, zap.Int64(fieldCount, entry.Count))
	}
	if entry.Error != nil {
		zapLogger.logger.Warn(logMessage, append(fields, zap.Error(entry.Error))...)
		return
	}
	zapLogger.logger.Info(logMessage, fields...)
}

// MetricsLogger counts operations by name and status.
type MetricsLogger struct {
	operations *prometheus.CounterVec
}

// NewMetricsLogger registers the operations counter with the registerer.
func NewMetricsLogger(registerer prometheus.Registerer) (*MetricsLogger, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      metricsName,
		Help:      "Reservation operations by name and status.",
	}, []string{labelOperation, labelStatus})
	if err := registerer.Register(operations); err != nil {
		return nil, err
	}
	return &MetricsLogger{operations: operations}, nil
}

func (metricsLogger *MetricsLogger) LogOperation(_ context.Context, entry reservation.OperationLog) {
	status := entry.Status
	if status == "" && entry.Error != nil {
		status = statusError
	}
	metricsLogger.operations.WithLabelValues(entry.Operation, status).Inc()
}

// Counter exposes the underlying collector.
func (metricsLogger *MetricsLogger) Counter() *prometheus.CounterVec {
	return metricsLogger.operations
}

// Multi fans an entry out to every logger in order.
type Multi []reservation.OperationLogger

func (loggers Multi) LogOperation(ctx context.Context, entry reservation.OperationLog) {
	for _, logger := range loggers {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}

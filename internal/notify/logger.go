package notify

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

type zapLoggerAdapter struct {
	logger *zap.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter exposes a zap logger to watermill publishers.
func NewLoggerAdapter(logger *zap.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLoggerAdapter{logger: logger, fields: watermill.LogFields{}}
}

func (adapter *zapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	adapter.logger.Error(msg, append(adapter.zapFields(fields), zap.Error(err))...)
}

func (adapter *zapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	adapter.logger.Info(msg, adapter.zapFields(fields)...)
}

func (adapter *zapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	adapter.logger.Debug(msg, adapter.zapFields(fields)...)
}

// Trace maps to debug; zap has no lower level.
func (adapter *zapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	adapter.logger.Debug(msg, adapter.zapFields(fields)...)
}

func (adapter *zapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapLoggerAdapter{logger: adapter.logger, fields: adapter.combineFields(fields)}
}

func (adapter *zapLoggerAdapter) combineFields(fields watermill.LogFields) watermill.LogFields {
	allFields := make(watermill.LogFields, len(adapter.fields)+len(fields))
	for key, value := range adapter.fields {
		allFields[key] = value
	}
	for key, value := range fields {
		allFields[key] = value
	}
	return allFields
}

func (adapter *zapLoggerAdapter) zapFields(fields watermill.LogFields) []zap.Field {
	combined := adapter.combineFields(fields)
	zapFields := make([]zap.Field, 0, len(combined))
	for key, value := range combined {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}

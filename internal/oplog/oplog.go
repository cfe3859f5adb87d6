// Package oplog adapts ledger.OperationLogger onto zap and lets several
// observers share the hook.
package oplog

import (
	"context"

	"github.com/reachpay/ledger/pkg/ledger"
	"go.uber.org/zap"
)

// ZapLogger writes operation records as structured zap entries. Failed
// operations log at error level, successes at info.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// LogOperation satisfies ledger.OperationLogger.
func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry ledger.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.UserID.String() != "" {
		fields = append(fields, zap.String("user_id", entry.UserID.String()))
	}
	if entry.SubmissionID.String() != "" {
		fields = append(fields, zap.String("submission_id", entry.SubmissionID.String()))
	}
	if entry.PayoutID.String() != "" {
		fields = append(fields, zap.String("payout_id", entry.PayoutID.String()))
	}
	if entry.AdminID.String() != "" {
		fields = append(fields, zap.String("admin_id", entry.AdminID.String()))
	}
	if entry.Amount.Int64() != 0 {
		fields = append(fields, zap.Int64("amount_cents", entry.Amount.Int64()))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		zapLogger.logger.Error("ledger operation failed", fields...)
		return
	}
	zapLogger.logger.Info("ledger operation", fields...)
}

// Multi fans each operation record out to every wrapped logger.
type Multi struct {
	loggers []ledger.OperationLogger
}

// NewMulti combines operation loggers; nil entries are skipped.
func NewMulti(loggers ...ledger.OperationLogger) *Multi {
	kept := make([]ledger.OperationLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			kept = append(kept, logger)
		}
	}
	return &Multi{loggers: kept}
}

// LogOperation satisfies ledger.OperationLogger.
func (multi *Multi) LogOperation(ctx context.Context, entry ledger.OperationLog) {
	for _, logger := range multi.loggers {
		logger.LogOperation(ctx, entry)
	}
}

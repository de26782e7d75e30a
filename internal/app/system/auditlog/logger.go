// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/assessor/internal/app/store/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings accepted by Config.Setting.
const (
	SettingAll = "all" // MongoDB + zap
	SettingDB  = "db"  // MongoDB only
	SettingLog = "log" // zap only
	SettingOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Setting controls where distribution events go: "all", "db", "log" or "off".
	Setting string
}

// Recorder persists audit events. *audit.Store satisfies it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging distribution events.
// It logs to a Recorder (when one is configured) and to zap.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// output is skipped.
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	if config.Setting == "" {
		config.Setting = SettingLog
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// NewRunID returns an identifier that groups the events of one bulk run.
func NewRunID() string {
	return uuid.NewString()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.RunID != "" {
		fields = append(fields, zap.String("run_id", event.RunID))
	}
	if event.Operation != "" {
		fields = append(fields, zap.String("operation", event.Operation))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.SheetID != "" {
		fields = append(fields, zap.String("sheet_id", event.SheetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.config.Setting
	if setting == SettingOff {
		return
	}

	if setting == SettingAll || setting == SettingLog {
		l.logToZap(event)
	}

	if (setting == SettingAll || setting == SettingDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Document Events ---

// DocumentCreated logs creation of a participant's spreadsheet.
func (l *Logger) DocumentCreated(ctx context.Context, runID, email, sheetID, title string) {
	l.Log(ctx, audit.Event{
		RunID:     runID,
		Category:  audit.CategoryDocument,
		EventType: audit.EventDocumentCreated,
		Email:     email,
		SheetID:   sheetID,
		Success:   true,
		Details:   map[string]string{"title": title},
	})
}

// DocumentAction logs a write, update or read against a participant's
// spreadsheet. A non-nil err marks the event as failed.
func (l *Logger) DocumentAction(ctx context.Context, runID, eventType, operation, email, sheetID string, err error) {
	ev := audit.Event{
		RunID:     runID,
		Category:  audit.CategoryDocument,
		EventType: eventType,
		Operation: operation,
		Email:     email,
		SheetID:   sheetID,
		Success:   err == nil,
	}
	if err != nil {
		ev.FailureReason = err.Error()
	}
	l.Log(ctx, ev)
}

// WriteSkipped logs a participant skipped because a document already existed.
func (l *Logger) WriteSkipped(ctx context.Context, runID, email, sheetID string) {
	l.Log(ctx, audit.Event{
		RunID:     runID,
		Category:  audit.CategoryDocument,
		EventType: audit.EventWriteSkipped,
		Operation: "write",
		Email:     email,
		SheetID:   sheetID,
		Success:   true,
	})
}

// --- Sharing Events ---

// Sharing logs a grant, modification or revocation.
func (l *Logger) Sharing(ctx context.Context, runID, eventType, email, sheetID, role string, err error) {
	ev := audit.Event{
		RunID:     runID,
		Category:  audit.CategorySharing,
		EventType: eventType,
		Email:     email,
		SheetID:   sheetID,
		Success:   err == nil,
	}
	if role != "" {
		ev.Details = map[string]string{"role": role}
	}
	if err != nil {
		ev.FailureReason = err.Error()
	}
	l.Log(ctx, ev)
}

// --- Registry Events ---

// EntryDeleted logs removal of a participant's mapping entry.
func (l *Logger) EntryDeleted(ctx context.Context, email, sheetID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRegistry,
		EventType: audit.EventEntryDeleted,
		Email:     email,
		SheetID:   sheetID,
		Success:   true,
	})
}

// EntriesPurged logs mapping entries dropped because their email left the roster.
func (l *Logger) EntriesPurged(ctx context.Context, emails []string) {
	for _, e := range emails {
		l.Log(ctx, audit.Event{
			Category:  audit.CategoryRegistry,
			EventType: audit.EventEntriesPurged,
			Email:     e,
			Success:   true,
		})
	}
}

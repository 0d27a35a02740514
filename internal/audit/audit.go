// Package audit provides structured audit logging for record changes.
//
// Every audit event is logged through zap with these fields:
//   - audit_type: record_create, record_update or record_delete
//   - audit_timestamp: when the change happened
//   - audit_collection: "animals" or "employees"
//   - audit_recordID: the record ID
//   - audit_requestID: the X-Request-ID of the HTTP request (optional)
//   - audit_details: additional event-specific details (optional). Creates
//     and updates carry {"fields": [...]}, the sorted names of the fields
//     present in the stored record.
//
// Example audit log entry:
//
//	{
//	  "level": "info",
//	  "msg": "Audit event",
//	  "audit_type": "record_create",
//	  "audit_timestamp": "2026-10-19T10:44:43.400Z",
//	  "audit_collection": "animals",
//	  "audit_recordID": 6,
//	  "audit_requestID": "3d4f5c0e-0e39-4a55-9c8e-52f1bb0a8f3e",
//	  "audit_details": {"fields": ["age", "name", "species"]}
//	}
package audit

import (
	"time"

	"go.uber.org/zap"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventTypeRecordCreate EventType = "record_create"
	EventTypeRecordUpdate EventType = "record_update"
	EventTypeRecordDelete EventType = "record_delete"
)

// Event represents a structured audit log event.
type Event struct {
	Type       EventType              `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Collection string                 `json:"collection"`
	RecordID   int                    `json:"recordID"`
	RequestID  string                 `json:"requestID,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Logger provides structured audit logging.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new audit logger. The events are written to baseLogger
// under the "audit" name.
func NewLogger(baseLogger *zap.Logger) *Logger {
	return &Logger{
		logger: baseLogger.Named("audit"),
	}
}

// LogEvent logs an audit event.
func (l *Logger) LogEvent(event *Event) {
	if l == nil || event == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := []zap.Field{
		zap.String("audit_type", string(event.Type)),
		zap.Time("audit_timestamp", event.Timestamp),
		zap.String("audit_collection", event.Collection),
		zap.Int("audit_recordID", event.RecordID),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("audit_requestID", event.RequestID))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("audit_details", event.Details))
	}

	l.logger.Info("Audit event", fields...)
}

// LogRecordCreate logs a record creation. fields names the fields set on
// the new record.
func (l *Logger) LogRecordCreate(collection string, id int, requestID string, fields []string) {
	l.LogEvent(&Event{
		Type:       EventTypeRecordCreate,
		Collection: collection,
		RecordID:   id,
		RequestID:  requestID,
		Details:    fieldDetails(fields),
	})
}

// LogRecordUpdate logs a record replacement. fields names the fields set on
// the replacement; any other field was cleared.
func (l *Logger) LogRecordUpdate(collection string, id int, requestID string, fields []string) {
	l.LogEvent(&Event{
		Type:       EventTypeRecordUpdate,
		Collection: collection,
		RecordID:   id,
		RequestID:  requestID,
		Details:    fieldDetails(fields),
	})
}

// LogRecordDelete logs a record deletion.
func (l *Logger) LogRecordDelete(collection string, id int, requestID string) {
	l.LogEvent(&Event{
		Type:       EventTypeRecordDelete,
		Collection: collection,
		RecordID:   id,
		RequestID:  requestID,
	})
}

func fieldDetails(fields []string) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	return map[string]interface{}{"fields": fields}
}

package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a console notification raised by a user action
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Level     Level                  `json:"level"`
	RecordID  int64                  `json:"recordId,omitempty"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an event with an auto-generated ID and timestamp
func NewEvent(eventType Type, level Level, recordID int64, message string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Level:     level,
		RecordID:  recordID,
		Message:   message,
		Payload:   map[string]interface{}{},
		Timestamp: time.Now(),
	}
}

// Success is shorthand for a success-level event
func Success(eventType Type, recordID int64, message string) *Event {
	return NewEvent(eventType, LevelSuccess, recordID, message)
}

// Failure is shorthand for an error-level operation.failed event
func Failure(recordID int64, message string, err error) *Event {
	e := NewEvent(TypeOperationFailed, LevelError, recordID, message)
	if err != nil {
		e.Payload["error"] = err.Error()
	}
	return e
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

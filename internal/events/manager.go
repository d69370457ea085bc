// Package events provides event management functionality.
package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Event represents a system event. Data always holds the payload as a
// map[string]interface{}; GetTypedData converts it back to EventData.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// GetTypedData attempts to convert the legacy Data map to typed EventData.
// Returns the typed data if conversion is successful, nil otherwise.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	switch e.Type {
	case MeetingUpdate:
		var data MeetingUpdateData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SignalCreated:
		var data SignalCreatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SignalApproved:
		var data SignalApprovedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SignalRejected, GateBlocked:
		var data SignalRejectedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SignalExecuted:
		var data SignalExecutedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case ScanProgress:
		var data ScanProgressData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case ScanCompleted:
		var data ScanCompletedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case ErrorOccurred:
		var data ErrorEventData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	}

	return nil
}

// convertMapToStruct converts a map[string]interface{} to a struct.
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

// Manager handles event emission and logging on top of a Bus.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("component", "events").Logger(),
	}
}

// Emit emits an event to the bus and logs it (legacy method with map[string]interface{}).
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	m.bus.Emit(event)

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("event emitted")
}

// EmitTyped emits an event with typed data to the bus and logs it.
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	dataMap := convertEventDataToMap(data)

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      dataMap,
		Module:    module,
	}

	m.bus.Emit(event)

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("event emitted")
}

// EmitError emits an error event.
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	data := &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	}
	m.EmitTyped(ErrorOccurred, module, data)
}

// Subscribe registers a channel-backed subscriber on the underlying bus.
// See Bus.Subscribe for semantics.
func (m *Manager) Subscribe(topics ...EventType) (<-chan Event, func()) {
	return m.bus.Subscribe(topics...)
}

// convertEventDataToMap converts typed EventData to map[string]interface{}.
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}

	return result
}

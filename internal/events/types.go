// Package events provides in-process pub/sub for council, signal and scan lifecycle updates.
package events

// EventType identifies the topic an Event was published on.
type EventType string

const (
	// MeetingUpdate fires after every appended Council message and at meeting end.
	MeetingUpdate EventType = "meeting.update"
	// SignalCreated fires once a Meeting produces an Investment Signal.
	SignalCreated EventType = "signal.created"
	// SignalApproved fires when a human approves a PENDING signal.
	SignalApproved EventType = "signal.approved"
	// SignalRejected fires when a signal is rejected through Pipeline.Reject;
	// gate blocks publish GateBlocked instead.
	SignalRejected EventType = "signal.rejected"
	// SignalExecuted fires when a signal's order is submitted successfully.
	SignalExecuted EventType = "signal.executed"
	// ScanProgress is the topic for quant-scan progress payloads.
	// QuantScanJob does not publish on it.
	ScanProgress EventType = "scan.progress"
	// ScanCompleted is the topic for quant-scan completion payloads.
	// QuantScanJob does not publish on it.
	ScanCompleted EventType = "scan.completed"
	// GateBlocked fires when Pipeline.Execute blocks a BUY signal at a
	// pre-trade gate (or the fail-safe "error" gate). A data-quality
	// discard in the council is logged, not published here.
	GateBlocked EventType = "gate.blocked"
	// ErrorOccurred is a generic audit event for errors any component wants surfaced.
	ErrorOccurred EventType = "error.occurred"
)

// EventData is implemented by every typed payload so Event.GetTypedData can
// return a concrete type instead of a bare map.
type EventData interface {
	eventData()
}

// MeetingUpdateData is the payload for MeetingUpdate.
type MeetingUpdateData struct {
	MeetingID        string `json:"meeting_id"`
	Symbol           string `json:"symbol"`
	Round            int    `json:"round"`
	MessageCount     int    `json:"message_count"`
	ConsensusReached bool   `json:"consensus_reached"`
}

func (*MeetingUpdateData) eventData() {}

// SignalCreatedData is the payload for SignalCreated.
type SignalCreatedData struct {
	SignalID          string  `json:"signal_id"`
	Symbol            string  `json:"symbol"`
	Action            string  `json:"action"`
	AllocationPercent float64 `json:"allocation_percent"`
	Status            string  `json:"status"`
}

func (*SignalCreatedData) eventData() {}

// SignalApprovedData is the payload for SignalApproved.
type SignalApprovedData struct {
	SignalID string `json:"signal_id"`
}

func (*SignalApprovedData) eventData() {}

// SignalRejectedData is the payload for SignalRejected and GateBlocked.
type SignalRejectedData struct {
	SignalID string `json:"signal_id"`
	Reason   string `json:"reason"`
	Gate     string `json:"gate,omitempty"`
}

func (*SignalRejectedData) eventData() {}

// SignalExecutedData is the payload for SignalExecuted.
type SignalExecutedData struct {
	SignalID   string `json:"signal_id"`
	OrderNo    string `json:"order_no,omitempty"`
	ExecutedAt int64  `json:"executed_at"`
}

func (*SignalExecutedData) eventData() {}

// ScanProgressData is the payload for ScanProgress.
type ScanProgressData struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

func (*ScanProgressData) eventData() {}

// ScanCompletedData is the payload for ScanCompleted.
type ScanCompletedData struct {
	ResultCount  int    `json:"result_count"`
	TopSymbol    string `json:"top_symbol,omitempty"`
	BuyMeetings  int    `json:"buy_meetings"`
	SellMeetings int    `json:"sell_meetings"`
}

func (*ScanCompletedData) eventData() {}

// ErrorEventData is the payload for ErrorOccurred.
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (*ErrorEventData) eventData() {}

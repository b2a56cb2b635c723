package models

import "time"

// Event types recorded in the event history.
const (
	EventConfigUpdate   = "CONFIG_UPDATE"
	EventConfigRejected = "CONFIG_REJECTED"
	EventRunStart       = "RUN_START"
	EventRunComplete    = "RUN_COMPLETE"
	EventRunCancelled   = "RUN_CANCELLED"
	EventRunFailed      = "RUN_FAILED"
	EventStartFailed    = "START_FAILED"
	EventStopRequested  = "STOP_REQUESTED"
)

// PulseEvent is a single structured history entry.
type PulseEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Channel     string    `json:"channel,omitempty"` // empty for controller-wide events
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

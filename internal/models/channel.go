package models

// ChannelState is the run state of one output channel.
type ChannelState string

const (
	ChannelIdle    ChannelState = "IDLE"
	ChannelPending ChannelState = "PENDING" // run launched, waiting out its start delay
	ChannelRunning ChannelState = "RUNNING"
)

// ChannelStatus is a point-in-time view of one channel.
type ChannelStatus struct {
	Name          string       `json:"name"`
	OutputID      int          `json:"output_id"`
	State         ChannelState `json:"state"`
	Running       bool         `json:"running"`
	StopRequested bool         `json:"stop_requested"`
	StartDelayMs  int          `json:"start_delay_ms"`
	PulsesEmitted int          `json:"pulses_emitted"` // in the current or last run
	Runs          int          `json:"runs"`           // completed or cancelled runs since boot
}

// PacerStatus is the combined view of config and both channels.
type PacerStatus struct {
	Config   PulseConfig     `json:"config"`
	Channels []ChannelStatus `json:"channels"`
}

// StartOutcome describes what a start request did to one channel.
type StartOutcome string

const (
	OutcomeStarted        StartOutcome = "started"
	OutcomeAlreadyRunning StartOutcome = "already_running"
	OutcomeFailed         StartOutcome = "failed"
)

// ChannelStart is the per-channel result of a start request.
type ChannelStart struct {
	Channel string       `json:"channel"`
	Outcome StartOutcome `json:"outcome"`
	Err     error        `json:"-"`
}

package models

// PulseConfig is the shared pulse train configuration. WidthMs < PeriodMs always holds
// for a committed config.
type PulseConfig struct {
	WidthMs        int `json:"width_ms"`         // high time per pulse
	PeriodMs       int `json:"period_ms"`        // time between pulse starts
	Count          int `json:"count"`            // pulses per run
	ChannelDelayMs int `json:"channel_delay_ms"` // secondary start offset
}

// ConfigUpdate carries the optional fields of a configure request.
// A nil field keeps its current value.
type ConfigUpdate struct {
	WidthMs        *int `json:"width,omitempty"`
	PeriodMs       *int `json:"period,omitempty"`
	Count          *int `json:"npulses,omitempty"`
	ChannelDelayMs *int `json:"delay,omitempty"`
}

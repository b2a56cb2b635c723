package pulse_generator

import "pulse_generator/internal/models"

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"` // offending configure parameter
}

// ConfigRequest is the JSON body of a configure call. Omitted fields keep their
// current value.
type ConfigRequest struct {
	Width   *int `json:"width,omitempty" example:"100"`
	Period  *int `json:"period,omitempty" example:"200"`
	NPulses *int `json:"npulses,omitempty" example:"10"`
	Delay   *int `json:"delay,omitempty" example:"50"`
}

// ConfigResponse echoes the committed configuration.
type ConfigResponse struct {
	Status string             `json:"status"`
	Config models.PulseConfig `json:"config"`
}

// StartResponse lists what a start request did on each channel.
type StartResponse struct {
	Status   string                `json:"status"`
	Channels []models.ChannelStart `json:"channels"`
}

// StatusMessage is a bare acknowledgement.
type StatusMessage struct {
	Status string `json:"status"`
}

// EventsResponse is a page of event history.
type EventsResponse struct {
	Count  int                 `json:"count"`
	Events []models.PulseEvent `json:"events"`
}

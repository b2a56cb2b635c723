package service

import (
	"context"

	"pulse_generator/internal/models"
	"pulse_generator/internal/pulse"
	"pulse_generator/internal/repository"
)

// Pacer exposes the control operations: configure, start and stop.
type Pacer interface {
	UpdateConfig(ctx context.Context, u models.ConfigUpdate) (models.PulseConfig, error)
	StartAll(ctx context.Context) []models.ChannelStart
	StopAll(ctx context.Context)
}

// Monitoring exposes read-only config and channel state.
type Monitoring interface {
	Status(ctx context.Context) models.PacerStatus
}

// ActivityLog exposes the bounded text log.
type ActivityLog interface {
	Snapshot() string
}

// EventLog exposes the structured event history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PulseEvent, error)
}

// Service aggregates everything the HTTP layer needs.
type Service struct {
	Pacer
	Monitoring
	ActivityLog
	EventLog
}

// NewService wires the controller, its activity log and the event repository.
func NewService(repos *repository.Repository, ctrl *pulse.Controller, sink *pulse.LogSink) *Service {
	return &Service{
		Pacer:       ctrl,
		Monitoring:  ctrl,
		ActivityLog: sink,
		EventLog:    NewEventLogService(repos.EventRepo),
	}
}

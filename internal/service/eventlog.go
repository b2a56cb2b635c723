package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pulse_generator/internal/models"
	"pulse_generator/internal/pulse"
	"pulse_generator/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	errUnknownEventType = errors.New("unknown event type")
	errUnknownChannel   = errors.New("unknown channel")
)

// IsFilterError reports whether err came from rejecting a LogFilter.
func IsFilterError(err error) bool {
	return errors.Is(err, errInvalidTimeRange) ||
		errors.Is(err, errUnknownEventType) ||
		errors.Is(err, errUnknownChannel)
}

var knownEventTypes = map[string]struct{}{
	models.EventConfigUpdate:   {},
	models.EventConfigRejected: {},
	models.EventRunStart:       {},
	models.EventRunComplete:    {},
	models.EventRunCancelled:   {},
	models.EventRunFailed:      {},
	models.EventStartFailed:    {},
	models.EventStopRequested:  {},
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeChannel maps a case-insensitive channel name to its canonical form.
func normalizeChannel(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", nil
	case strings.EqualFold(s, pulse.PrimaryName):
		return pulse.PrimaryName, nil
	case strings.EqualFold(s, pulse.SecondaryName):
		return pulse.SecondaryName, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownChannel, s)
}

func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From: normalizeToUTC(f.From),
		To:   normalizeToUTC(f.To),
		Type: normalizeEventType(f.Type),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	if out.Type != "" {
		if _, ok := knownEventTypes[out.Type]; !ok {
			return LogFilter{}, fmt.Errorf("%w: %q", errUnknownEventType, out.Type)
		}
	}
	ch, err := normalizeChannel(f.Channel)
	if err != nil {
		return LogFilter{}, err
	}
	out.Channel = ch
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PulseEvent, error) {
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type, nf.Channel)
}

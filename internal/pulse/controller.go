package pulse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"pulse_generator/internal/logger"
	"pulse_generator/internal/models"

	"github.com/google/uuid"
)

// DefaultConfig is the configuration a controller boots with unless told otherwise.
var DefaultConfig = models.PulseConfig{
	WidthMs:        100,
	PeriodMs:       200,
	Count:          10,
	ChannelDelayMs: 50,
}

// Default output ids for the two channels.
const (
	DefaultPrimaryPin   = 25
	DefaultSecondaryPin = 26
)

// EventSink receives structured controller events. repository.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e models.PulseEvent) error
}

// Options configures a Controller. Zero values fall back to defaults: simulated
// lines on the default pins, two launch slots, no event sink.
type Options struct {
	Config        models.PulseConfig
	PrimaryLine   Line
	SecondaryLine Line
	MaxRuns       int
	Sink          *LogSink
	Events        EventSink
	Log           *logger.Logger
}

// Controller owns the shared pulse configuration and the primary and secondary
// channels, and starts and stops runs on them.
type Controller struct {
	mu  sync.RWMutex
	cfg models.PulseConfig

	primary   *Channel
	secondary *Channel
	channels  []*Channel

	launcher *Launcher
	seq      *Sequencer
	sink     *LogSink
	events   EventSink
	log      *logger.Logger
}

// NewController validates the initial config and builds both channels.
func NewController(opts Options) (*Controller, error) {
	cfg := opts.Config
	if cfg == (models.PulseConfig{}) {
		cfg = DefaultConfig
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("initial pulse config: %w", err)
	}
	if opts.PrimaryLine == nil {
		opts.PrimaryLine = NewSimulatedLine(DefaultPrimaryPin)
	}
	if opts.SecondaryLine == nil {
		opts.SecondaryLine = NewSimulatedLine(DefaultSecondaryPin)
	}
	if opts.MaxRuns == 0 {
		opts.MaxRuns = 2
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Sink == nil {
		opts.Sink = NewLogSink(opts.Log)
	}

	c := &Controller{
		cfg:       cfg,
		primary:   newChannel(PrimaryName, opts.PrimaryLine, false),
		secondary: newChannel(SecondaryName, opts.SecondaryLine, true),
		launcher:  NewLauncher(opts.MaxRuns),
		seq:       NewSequencer(opts.Sink, opts.Log),
		sink:      opts.Sink,
		events:    opts.Events,
		log:       opts.Log,
	}
	c.channels = []*Channel{c.primary, c.secondary}
	return c, nil
}

// maxFieldValue bounds every pulse field to an unsigned 32-bit millisecond or
// pulse count, which keeps every derived time.Duration far from overflow.
const maxFieldValue = math.MaxUint32

func inRange(v int) bool {
	return v > 0 && int64(v) <= maxFieldValue
}

// Validate checks a complete config.
func Validate(cfg models.PulseConfig) error {
	switch {
	case !inRange(cfg.WidthMs):
		return InvalidField(FieldWidth)
	case !inRange(cfg.PeriodMs):
		return InvalidField(FieldPeriod)
	case !inRange(cfg.Count):
		return InvalidField(FieldNPulses)
	case !inRange(cfg.ChannelDelayMs):
		return InvalidField(FieldDelay)
	case cfg.WidthMs >= cfg.PeriodMs:
		return &ValidationError{Field: FieldWidth, Message: msgWidthNotBelowPeriod}
	}
	return nil
}

// merge applies u to cfg. Supplied fields must lie in 1..maxFieldValue and are
// checked in the order width, period, npulses, delay before the width/period relation.
func merge(cfg models.PulseConfig, u models.ConfigUpdate) (models.PulseConfig, error) {
	fields := []struct {
		name string
		in   *int
		out  *int
	}{
		{FieldWidth, u.WidthMs, &cfg.WidthMs},
		{FieldPeriod, u.PeriodMs, &cfg.PeriodMs},
		{FieldNPulses, u.Count, &cfg.Count},
		{FieldDelay, u.ChannelDelayMs, &cfg.ChannelDelayMs},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		if !inRange(*f.in) {
			return cfg, InvalidField(f.name)
		}
		*f.out = *f.in
	}
	if cfg.WidthMs >= cfg.PeriodMs {
		return cfg, &ValidationError{Field: FieldWidth, Message: msgWidthNotBelowPeriod}
	}
	return cfg, nil
}

// Config returns the current configuration.
func (c *Controller) Config() models.PulseConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// UpdateConfig validates u against the current config and commits it as a whole.
// On error nothing changes and the error is a *ValidationError.
func (c *Controller) UpdateConfig(ctx context.Context, u models.ConfigUpdate) (models.PulseConfig, error) {
	c.mu.Lock()
	next, err := merge(c.cfg, u)
	if err == nil {
		c.cfg = next
	}
	current := c.cfg
	c.mu.Unlock()

	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Message == msgWidthNotBelowPeriod {
			c.sink.Appendf("Rejected params: width (%d ms) must be smaller than period (%d ms).", next.WidthMs, next.PeriodMs)
		}
		c.log.Infow("pulse_config_rejected", "err", err)
		c.record(ctx, models.EventConfigRejected, "", err.Error(), nil)
		return current, err
	}

	c.sink.Appendf("Params updated:: width = %d ms, period = %d ms, n pulses = %d, delay = %d ms.",
		next.WidthMs, next.PeriodMs, next.Count, next.ChannelDelayMs)
	c.log.Infow("pulse_config_updated", "config", next)
	c.record(ctx, models.EventConfigUpdate, "", "Pulse parameters updated", next)
	return next, nil
}

// StartAll launches a run on every idle channel. Channels with a pending or active
// run are left alone. A launch failure on one channel does not prevent the other.
// Start deadlines share one base time, so the secondary offset does not depend on
// how long launching or event recording takes.
func (c *Controller) StartAll(ctx context.Context) []models.ChannelStart {
	cfg := c.Config()
	base := time.Now()
	out := make([]models.ChannelStart, 0, len(c.channels))
	snaps := make([]Snapshot, 0, len(c.channels))
	for _, ch := range c.channels {
		delay := 0
		if ch.delayed {
			delay = cfg.ChannelDelayMs
		}
		snap := snapshotOf(cfg, delay)
		snap.StartAt = base.Add(snap.StartDelay)
		out = append(out, c.start(ctx, ch, snap))
		snaps = append(snaps, snap)
	}

	for i, res := range out {
		switch res.Outcome {
		case models.OutcomeStarted:
			c.recordAt(ctx, base, models.EventRunStart, res.Channel, res.Channel+" run started", snapMeta(snaps[i]))
		case models.OutcomeFailed:
			c.recordAt(ctx, base, models.EventStartFailed, res.Channel, res.Err.Error(), nil)
		}
	}
	return out
}

func (c *Controller) start(ctx context.Context, ch *Channel, snap Snapshot) models.ChannelStart {
	res := models.ChannelStart{Channel: ch.Name()}
	if !ch.claim(snap.StartDelay) {
		res.Outcome = models.OutcomeAlreadyRunning
		return res
	}

	runCtx := context.WithoutCancel(ctx)
	err := c.launcher.Launch(func(release func()) {
		r := c.seq.Run(ch, snap, release)
		c.recordRun(runCtx, ch, snap, r)
	})
	if err != nil {
		ch.unclaim()
		c.sink.Appendf("Failed to create %s Task", ch.Name())
		c.log.Errorw("sequencer_launch_failed", "channel", ch.Name(), "err", err)
		res.Outcome = models.OutcomeFailed
		res.Err = fmt.Errorf("start %s: %w", ch.Name(), err)
		return res
	}
	res.Outcome = models.OutcomeStarted
	return res
}

// StopAll requests cancellation on both channels and returns immediately.
func (c *Controller) StopAll(ctx context.Context) {
	for _, ch := range c.channels {
		ch.requestStop()
	}
	c.sink.Appendf("Stop requested for all pulse tasks")
	c.log.Infow("pulse_stop_requested")
	c.record(ctx, models.EventStopRequested, "", "Stop requested for all pulse tasks", nil)
}

// Status returns the config and both channel states.
func (c *Controller) Status(ctx context.Context) models.PacerStatus {
	st := models.PacerStatus{Config: c.Config()}
	for _, ch := range c.channels {
		st.Channels = append(st.Channels, ch.Status())
	}
	return st
}

// Primary and Secondary expose the channels for inspection.
func (c *Controller) Primary() *Channel   { return c.primary }
func (c *Controller) Secondary() *Channel { return c.secondary }

// ActiveRuns returns the number of runs holding a launch slot.
func (c *Controller) ActiveRuns() int { return c.launcher.Active() }

// Wait blocks until every launched run has returned or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	return c.launcher.Wait(ctx)
}

// Close releases both output lines. Runs should have finished first.
func (c *Controller) Close() error {
	return errors.Join(c.primary.line.Close(), c.secondary.line.Close())
}

func (c *Controller) recordRun(ctx context.Context, ch *Channel, snap Snapshot, r RunResult) {
	typ := models.EventRunComplete
	switch r.Outcome {
	case RunCancelled:
		typ = models.EventRunCancelled
	case RunFailed:
		typ = models.EventRunFailed
	}
	meta := snapMeta(snap)
	meta["pulses"] = r.Pulses
	if r.Err != nil {
		meta["error"] = r.Err.Error()
	}
	c.record(ctx, typ, ch.Name(), fmt.Sprintf("%s run %s", ch.Name(), r.Outcome), meta)
}

func (c *Controller) record(ctx context.Context, typ, channel, desc string, meta any) {
	c.recordAt(ctx, time.Now(), typ, channel, desc, meta)
}

func (c *Controller) recordAt(ctx context.Context, at time.Time, typ, channel, desc string, meta any) {
	if c.events == nil {
		return
	}
	err := c.events.Append(ctx, models.PulseEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at.UTC(),
		Type:        typ,
		Channel:     channel,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

func snapMeta(snap Snapshot) map[string]any {
	return map[string]any{
		"width_ms":       snap.Width.Milliseconds(),
		"period_ms":      snap.Period.Milliseconds(),
		"count":          snap.Count,
		"start_delay_ms": snap.StartDelay.Milliseconds(),
	}
}

package pulse

import (
	"time"

	"pulse_generator/internal/logger"
	"pulse_generator/internal/models"
)

// Snapshot is the immutable per-run copy of the pulse configuration.
type Snapshot struct {
	Width      time.Duration
	Period     time.Duration
	Count      int
	StartDelay time.Duration
	StartAt    time.Time // first edge deadline; zero means StartDelay from Run
}

func snapshotOf(cfg models.PulseConfig, startDelayMs int) Snapshot {
	return Snapshot{
		Width:      time.Duration(cfg.WidthMs) * time.Millisecond,
		Period:     time.Duration(cfg.PeriodMs) * time.Millisecond,
		Count:      cfg.Count,
		StartDelay: time.Duration(startDelayMs) * time.Millisecond,
	}
}

// Run outcomes.
const (
	RunCompleted = "completed"
	RunCancelled = "cancelled"
	RunFailed    = "failed"
)

// RunResult summarises one finished run.
type RunResult struct {
	Outcome string
	Pulses  int
	Err     error
}

// Sequencer executes finite pulse trains. It holds no per-run state, so one value
// serves every channel.
type Sequencer struct {
	sink  *LogSink
	log   *logger.Logger
	sleep func(time.Duration)
}

func NewSequencer(sink *LogSink, log *logger.Logger) *Sequencer {
	return &Sequencer{sink: sink, log: log, sleep: time.Sleep}
}

// Run drives one pulse train on ch. Stop requests are observed only between
// pulses, so cancellation takes at most one period. On return the channel is idle
// and release has been called.
func (s *Sequencer) Run(ch *Channel, snap Snapshot, release func()) RunResult {
	if snap.StartDelay > 0 {
		s.sink.Appendf("Pin %d: waiting initial delay %d ms", ch.OutputID(), snap.StartDelay.Milliseconds())
		if d := startWait(snap); d > 0 {
			s.sleep(d)
		}
	}

	ch.markRunning()
	s.sink.Appendf("Pin %d: %s pulsing started (%d pulses, width %d ms, period %d ms)",
		ch.OutputID(), ch.Name(), snap.Count, snap.Width.Milliseconds(), snap.Period.Milliseconds())

	res := RunResult{Outcome: RunCompleted}
	for i := 0; i < snap.Count; i++ {
		if ch.StopRequested() {
			res.Outcome = RunCancelled
			break
		}
		if err := s.pulse(ch.line, snap); err != nil {
			_ = ch.line.Set(Low)
			res.Outcome = RunFailed
			res.Err = err
			break
		}
		res.Pulses++
		ch.pulseEmitted()
	}

	release()
	ch.finish()
	s.report(ch, snap, res)
	return res
}

// startWait is how long Run holds before the first edge.
func startWait(snap Snapshot) time.Duration {
	if snap.StartAt.IsZero() {
		return snap.StartDelay
	}
	return time.Until(snap.StartAt)
}

func (s *Sequencer) pulse(line Line, snap Snapshot) error {
	if err := line.Set(High); err != nil {
		return err
	}
	s.sleep(snap.Width)
	if err := line.Set(Low); err != nil {
		return err
	}
	if low := snap.Period - snap.Width; low > 0 {
		s.sleep(low)
	}
	return nil
}

func (s *Sequencer) report(ch *Channel, snap Snapshot, res RunResult) {
	switch res.Outcome {
	case RunCancelled:
		s.sink.Appendf("Pin %d: %s pulsing cancelled after %d/%d pulses", ch.OutputID(), ch.Name(), res.Pulses, snap.Count)
	case RunFailed:
		s.sink.Appendf("Pin %d: %s pulsing failed after %d/%d pulses: %v", ch.OutputID(), ch.Name(), res.Pulses, snap.Count, res.Err)
		if s.log != nil {
			s.log.Errorw("sequencer_output_failed", "channel", ch.Name(), "pin", ch.OutputID(), "err", res.Err)
		}
	default:
		s.sink.Appendf("Pin %d: %s pulsing completed, %d pulses", ch.OutputID(), ch.Name(), res.Pulses)
	}
}

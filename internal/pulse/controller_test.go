package pulse

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"pulse_generator/internal/models"

	"github.com/stretchr/testify/require"
)

type memEvents struct {
	mu     sync.Mutex
	events []models.PulseEvent
}

func (m *memEvents) Append(ctx context.Context, e models.PulseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type testRig struct {
	ctrl      *Controller
	primary   *SimulatedLine
	secondary *SimulatedLine
	sink      *LogSink
	events    *memEvents
}

func newRig(t *testing.T, cfg models.PulseConfig, maxRuns int) *testRig {
	t.Helper()
	r := &testRig{
		primary:   NewSimulatedLine(25),
		secondary: NewSimulatedLine(26),
		sink:      NewLogSink(nil),
		events:    &memEvents{},
	}
	ctrl, err := NewController(Options{
		Config:        cfg,
		PrimaryLine:   r.primary,
		SecondaryLine: r.secondary,
		MaxRuns:       maxRuns,
		Sink:          r.sink,
		Events:        r.events,
	})
	require.NoError(t, err)
	r.ctrl = ctrl
	t.Cleanup(func() {
		ctrl.StopAll(context.Background())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ctrl.Wait(ctx)
	})
	return r
}

func (r *testRig) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.ctrl.Wait(ctx))
}

func intp(v int) *int { return &v }

func outcomes(res []models.ChannelStart) map[string]models.StartOutcome {
	out := make(map[string]models.StartOutcome, len(res))
	for _, r := range res {
		out[r.Channel] = r.Outcome
	}
	return out
}

func TestNewController_Defaults(t *testing.T) {
	ctrl, err := NewController(Options{})
	require.NoError(t, err)
	st := ctrl.Status(context.Background())
	require.Equal(t, DefaultConfig, st.Config)
	require.Len(t, st.Channels, 2)
	require.Equal(t, PrimaryName, st.Channels[0].Name)
	require.Equal(t, DefaultPrimaryPin, st.Channels[0].OutputID)
	require.Equal(t, SecondaryName, st.Channels[1].Name)
	require.Equal(t, DefaultSecondaryPin, st.Channels[1].OutputID)
	require.NoError(t, ctrl.Close())
}

func TestNewController_RejectsInvalidInitialConfig(t *testing.T) {
	_, err := NewController(Options{Config: models.PulseConfig{WidthMs: 200, PeriodMs: 100, Count: 1, ChannelDelayMs: 1}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, FieldWidth, verr.Field)
}

func TestUpdateConfig_RejectsNonPositiveField(t *testing.T) {
	cases := []struct {
		name  string
		u     models.ConfigUpdate
		field string
		msg   string
	}{
		{"zero width", models.ConfigUpdate{WidthMs: intp(0)}, FieldWidth, "Invalid width"},
		{"negative period", models.ConfigUpdate{PeriodMs: intp(-5)}, FieldPeriod, "Invalid period"},
		{"zero npulses", models.ConfigUpdate{Count: intp(0)}, FieldNPulses, "Invalid number of pulses"},
		{"negative delay", models.ConfigUpdate{ChannelDelayMs: intp(-1)}, FieldDelay, "Invalid delay"},
		{"valid width then bad npulses", models.ConfigUpdate{WidthMs: intp(150), Count: intp(0)}, FieldNPulses, "Invalid number of pulses"},
		{"width beyond u32", models.ConfigUpdate{WidthMs: intp(9_300_000_000_000), PeriodMs: intp(9_300_000_000_001)}, FieldWidth, "Invalid width"},
		{"period beyond u32", models.ConfigUpdate{PeriodMs: intp(maxFieldValue + 1)}, FieldPeriod, "Invalid period"},
		{"npulses beyond u32", models.ConfigUpdate{Count: intp(maxFieldValue + 1)}, FieldNPulses, "Invalid number of pulses"},
		{"delay beyond u32", models.ConfigUpdate{ChannelDelayMs: intp(maxFieldValue + 1)}, FieldDelay, "Invalid delay"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, DefaultConfig, 2)
			got, err := r.ctrl.UpdateConfig(context.Background(), tc.u)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
			require.Equal(t, tc.msg, verr.Message)
			require.Equal(t, DefaultConfig, got)
			require.Equal(t, DefaultConfig, r.ctrl.Config())
			require.Equal(t, []string{models.EventConfigRejected}, r.events.types())
		})
	}
}

func TestUpdateConfig_AcceptsU32Maximum(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)
	got, err := r.ctrl.UpdateConfig(context.Background(), models.ConfigUpdate{
		PeriodMs:       intp(maxFieldValue),
		ChannelDelayMs: intp(maxFieldValue),
	})
	require.NoError(t, err)
	require.Equal(t, maxFieldValue, got.PeriodMs)

	snap := snapshotOf(got, got.ChannelDelayMs)
	require.Positive(t, snap.Period)
	require.Positive(t, snap.StartDelay)
}

func TestValidate_RejectsOutOfRangeInitialConfig(t *testing.T) {
	cfg := DefaultConfig
	cfg.Count = maxFieldValue + 1
	var verr *ValidationError
	require.ErrorAs(t, Validate(cfg), &verr)
	require.Equal(t, FieldNPulses, verr.Field)
}

func TestUpdateConfig_RejectsWidthNotBelowPeriod(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)

	for _, u := range []models.ConfigUpdate{
		{WidthMs: intp(300), PeriodMs: intp(200)},
		{WidthMs: intp(200)}, // equal to current period
		{PeriodMs: intp(50)}, // below current width
	} {
		_, err := r.ctrl.UpdateConfig(context.Background(), u)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, msgWidthNotBelowPeriod, verr.Message)
		require.Equal(t, DefaultConfig, r.ctrl.Config())
	}
	require.Contains(t, r.sink.Snapshot(), "Rejected params: width (300 ms) must be smaller than period (200 ms).")

	// the untouched config is still consistent
	got, err := r.ctrl.UpdateConfig(context.Background(), models.ConfigUpdate{
		WidthMs: intp(100), PeriodMs: intp(200), Count: intp(10), ChannelDelayMs: intp(50),
	})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig, got)
}

func TestUpdateConfig_CommitsAllFieldsAndLogs(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)
	got, err := r.ctrl.UpdateConfig(context.Background(), models.ConfigUpdate{
		WidthMs: intp(20), PeriodMs: intp(80), Count: intp(4), ChannelDelayMs: intp(15),
	})
	require.NoError(t, err)
	want := models.PulseConfig{WidthMs: 20, PeriodMs: 80, Count: 4, ChannelDelayMs: 15}
	require.Equal(t, want, got)
	require.Equal(t, want, r.ctrl.Config())
	require.Contains(t, r.sink.Snapshot(), "Params updated:: width = 20 ms, period = 80 ms, n pulses = 4, delay = 15 ms.")
	require.Equal(t, []string{models.EventConfigUpdate}, r.events.types())
}

func TestUpdateConfig_PartialUpdateKeepsOtherFields(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)
	got, err := r.ctrl.UpdateConfig(context.Background(), models.ConfigUpdate{Count: intp(3)})
	require.NoError(t, err)
	require.Equal(t, models.PulseConfig{WidthMs: 100, PeriodMs: 200, Count: 3, ChannelDelayMs: 50}, got)
}

func TestStartAll_IsIdempotentWhileRunning(t *testing.T) {
	r := newRig(t, models.PulseConfig{WidthMs: 20, PeriodMs: 40, Count: 25, ChannelDelayMs: 30}, 2)
	ctx := context.Background()

	first := r.ctrl.StartAll(ctx)
	require.Equal(t, map[string]models.StartOutcome{
		PrimaryName:   models.OutcomeStarted,
		SecondaryName: models.OutcomeStarted,
	}, outcomes(first))

	// update config mid-run; the captured snapshot must not change
	_, err := r.ctrl.UpdateConfig(ctx, models.ConfigUpdate{ChannelDelayMs: intp(500)})
	require.NoError(t, err)

	second := r.ctrl.StartAll(ctx)
	require.Equal(t, map[string]models.StartOutcome{
		PrimaryName:   models.OutcomeAlreadyRunning,
		SecondaryName: models.OutcomeAlreadyRunning,
	}, outcomes(second))
	require.Equal(t, 2, r.ctrl.ActiveRuns())
	require.Equal(t, 30, r.ctrl.Secondary().Status().StartDelayMs)

	r.ctrl.StopAll(ctx)
	third := r.ctrl.StartAll(ctx)
	require.Equal(t, models.OutcomeAlreadyRunning, outcomes(third)[PrimaryName])
	require.True(t, r.ctrl.Primary().StopRequested(), "start on a running channel keeps its stop flag")
	require.True(t, r.ctrl.Secondary().StopRequested())

	r.wait(t)
	require.Equal(t, 0, r.ctrl.ActiveRuns())
	require.Equal(t, 1, r.ctrl.Primary().Status().Runs)
	require.Equal(t, 1, r.ctrl.Secondary().Status().Runs)
}

func TestStopAll_CancelsWithinOnePeriod(t *testing.T) {
	const period = 100 * time.Millisecond
	r := newRig(t, models.PulseConfig{WidthMs: 50, PeriodMs: 100, Count: 100, ChannelDelayMs: 20}, 2)
	ctx := context.Background()

	r.ctrl.StartAll(ctx)
	require.Eventually(t, func() bool {
		return r.ctrl.Primary().Running() && r.ctrl.Secondary().Running()
	}, time.Second, time.Millisecond)
	time.Sleep(130 * time.Millisecond)

	requested := time.Now()
	r.ctrl.StopAll(ctx)
	require.Eventually(t, func() bool {
		return !r.ctrl.Primary().Running() && !r.ctrl.Secondary().Running()
	}, period+50*time.Millisecond, time.Millisecond)
	require.LessOrEqual(t, time.Since(requested), period+50*time.Millisecond)

	r.wait(t)
	require.Less(t, r.ctrl.Primary().Status().PulsesEmitted, 100)
	require.False(t, r.ctrl.Primary().StopRequested())
	require.False(t, r.ctrl.Secondary().StopRequested())
	require.Contains(t, r.events.types(), models.EventRunCancelled)
}

func TestStopAll_IdleChannelsUnaffected(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)
	r.ctrl.StopAll(context.Background())

	st := r.ctrl.Status(context.Background())
	for _, ch := range st.Channels {
		require.Equal(t, models.ChannelIdle, ch.State)
	}
	require.Contains(t, r.sink.Snapshot(), "Stop requested for all pulse tasks")

	// a later start clears the stale flag and runs normally
	require.NoError(t, func() error {
		_, err := r.ctrl.UpdateConfig(context.Background(), models.ConfigUpdate{
			WidthMs: intp(2), PeriodMs: intp(4), Count: intp(2), ChannelDelayMs: intp(1),
		})
		return err
	}())
	r.ctrl.StartAll(context.Background())
	r.wait(t)
	require.Equal(t, 2, r.ctrl.Primary().Status().PulsesEmitted)
	require.Equal(t, 2, r.ctrl.Secondary().Status().PulsesEmitted)
}

func TestStartAll_SecondaryDelayedRelativeToPrimary(t *testing.T) {
	const jitter = 40 * time.Millisecond
	r := newRig(t, models.PulseConfig{WidthMs: 100, PeriodMs: 200, Count: 3, ChannelDelayMs: 50}, 2)

	start := time.Now()
	r.ctrl.StartAll(context.Background())
	r.wait(t)

	p := r.primary.RisingEdges()
	s := r.secondary.RisingEdges()
	require.Len(t, p, 3)
	require.Len(t, s, 3)

	require.Less(t, p[0].Sub(start), jitter)
	offset := s[0].Sub(start)
	require.GreaterOrEqual(t, offset, 50*time.Millisecond)
	require.Less(t, offset, 50*time.Millisecond+jitter)

	for i := 1; i < len(s); i++ {
		gap := s[i].Sub(s[i-1])
		require.GreaterOrEqual(t, gap, 200*time.Millisecond)
		require.Less(t, gap, 200*time.Millisecond+jitter)
	}
	require.Contains(t, r.sink.Snapshot(), "Pin 26: waiting initial delay 50 ms")
}

// slowEvents delays every append, like a busy single-connection store.
type slowEvents struct {
	memEvents
	delay time.Duration
}

func (s *slowEvents) Append(ctx context.Context, e models.PulseEvent) error {
	time.Sleep(s.delay)
	return s.memEvents.Append(ctx, e)
}

func TestStartAll_SlowEventStoreDoesNotShiftTiming(t *testing.T) {
	const jitter = 40 * time.Millisecond
	primary, secondary := NewSimulatedLine(25), NewSimulatedLine(26)
	events := &slowEvents{delay: 60 * time.Millisecond}
	ctrl, err := NewController(Options{
		Config:        models.PulseConfig{WidthMs: 20, PeriodMs: 40, Count: 2, ChannelDelayMs: 50},
		PrimaryLine:   primary,
		SecondaryLine: secondary,
		Events:        events,
	})
	require.NoError(t, err)

	start := time.Now()
	ctrl.StartAll(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ctrl.Wait(ctx))

	p, s := primary.RisingEdges(), secondary.RisingEdges()
	require.Len(t, p, 2)
	require.Len(t, s, 2)
	require.Less(t, p[0].Sub(start), jitter)
	offset := s[0].Sub(start)
	require.GreaterOrEqual(t, offset, 50*time.Millisecond)
	require.Less(t, offset, 50*time.Millisecond+jitter)

	types := events.types()
	require.Equal(t, 2, countOf(types, models.EventRunStart))
	require.Equal(t, 2, countOf(types, models.EventRunComplete))
}

func countOf(types []string, typ string) int {
	n := 0
	for _, t := range types {
		if t == typ {
			n++
		}
	}
	return n
}

func TestStartAll_RunUsesSnapshotTakenAtStart(t *testing.T) {
	r := newRig(t, models.PulseConfig{WidthMs: 10, PeriodMs: 20, Count: 3, ChannelDelayMs: 5}, 2)
	ctx := context.Background()

	r.ctrl.StartAll(ctx)
	_, err := r.ctrl.UpdateConfig(ctx, models.ConfigUpdate{Count: intp(10)})
	require.NoError(t, err)
	r.wait(t)

	require.Len(t, r.primary.RisingEdges(), 3)
	require.Len(t, r.secondary.RisingEdges(), 3)
}

func TestStartAll_LaunchFailureRollsBackOnlyThatChannel(t *testing.T) {
	r := newRig(t, models.PulseConfig{WidthMs: 5, PeriodMs: 10, Count: 3, ChannelDelayMs: 5}, 1)
	ctx := context.Background()

	res := r.ctrl.StartAll(ctx)
	require.Equal(t, models.OutcomeStarted, res[0].Outcome)
	require.Equal(t, models.OutcomeFailed, res[1].Outcome)
	require.ErrorIs(t, res[1].Err, ErrResourceExhausted)

	st := r.ctrl.Secondary().Status()
	require.Equal(t, models.ChannelIdle, st.State)
	require.Zero(t, st.StartDelayMs)
	require.Contains(t, r.sink.Snapshot(), "Failed to create Generator Task")
	require.Contains(t, r.events.types(), models.EventStartFailed)

	r.wait(t)
	require.Empty(t, r.secondary.Edges())
	require.Len(t, r.primary.RisingEdges(), 3)

	// the system stays usable after a failed start
	res = r.ctrl.StartAll(ctx)
	require.Equal(t, models.OutcomeStarted, res[0].Outcome)
	r.wait(t)
}

func TestStartStopCycles_DoNotLeak(t *testing.T) {
	r := newRig(t, models.PulseConfig{WidthMs: 1, PeriodMs: 2, Count: 3, ChannelDelayMs: 1}, 2)
	ctx := context.Background()
	baseline := runtime.NumGoroutine()

	for i := 0; i < 200; i++ {
		r.ctrl.StartAll(ctx)
		if i%2 == 0 {
			r.ctrl.StopAll(ctx)
		}
		r.wait(t)
	}

	require.Equal(t, 0, r.ctrl.ActiveRuns())
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, time.Second, 10*time.Millisecond)
	require.LessOrEqual(t, r.sink.Len(), maxLogBytes)
	require.LessOrEqual(t, len(r.primary.Edges()), maxRecordedEdges)
	require.Equal(t, 200, r.ctrl.Primary().Status().Runs)
	require.Equal(t, 200, r.ctrl.Secondary().Status().Runs)
}

func TestEndToEnd_ConfigureStartCompleteStop(t *testing.T) {
	r := newRig(t, DefaultConfig, 2)
	ctx := context.Background()

	_, err := r.ctrl.UpdateConfig(ctx, models.ConfigUpdate{
		WidthMs: intp(100), PeriodMs: intp(200), Count: intp(2), ChannelDelayMs: intp(50),
	})
	require.NoError(t, err)

	for _, res := range r.ctrl.StartAll(ctx) {
		require.Equal(t, models.OutcomeStarted, res.Outcome)
	}
	time.Sleep(2*200*time.Millisecond + 50*time.Millisecond + 50*time.Millisecond)
	r.wait(t)

	log := r.sink.Snapshot()
	require.Contains(t, log, "Myopacer pulsing started")
	require.Contains(t, log, "Myopacer pulsing completed, 2 pulses")
	require.Contains(t, log, "Generator pulsing completed, 2 pulses")
	for _, ch := range r.ctrl.Status(ctx).Channels {
		require.Equal(t, models.ChannelIdle, ch.State)
	}

	r.ctrl.StopAll(ctx)
	require.Contains(t, r.events.types(), models.EventRunComplete)
	require.Contains(t, r.events.types(), models.EventRunStart)
}

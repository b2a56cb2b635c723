package pulse

import (
	"sync"
	"time"

	"pulse_generator/internal/models"
)

// Channel names shown in the log and the API.
const (
	PrimaryName   = "Myopacer"
	SecondaryName = "Generator"
)

// Channel is one output line and its run state. The controller owns it; while a
// run is active the sequencer writes its state through the methods below.
type Channel struct {
	name    string
	line    Line
	delayed bool // start is offset by the configured channel delay

	mu            sync.Mutex
	state         models.ChannelState
	stopRequested bool
	startDelay    time.Duration
	pulses        int
	runs          int
}

func newChannel(name string, line Line, delayed bool) *Channel {
	return &Channel{name: name, line: line, delayed: delayed, state: models.ChannelIdle}
}

func (c *Channel) Name() string  { return c.name }
func (c *Channel) OutputID() int { return c.line.ID() }

// claim moves an idle channel to pending for a new run. It reports false and
// changes nothing if a run is already pending or active.
func (c *Channel) claim(startDelay time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.ChannelIdle {
		return false
	}
	c.state = models.ChannelPending
	c.stopRequested = false
	c.startDelay = startDelay
	c.pulses = 0
	return true
}

// unclaim rolls back a claim whose run could not be launched.
func (c *Channel) unclaim() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.ChannelIdle
	c.startDelay = 0
}

func (c *Channel) markRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.ChannelRunning
}

func (c *Channel) pulseEmitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pulses++
}

// finish returns the channel to idle and clears any pending stop request.
func (c *Channel) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.ChannelIdle
	c.stopRequested = false
	c.runs++
}

func (c *Channel) requestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRequested = true
}

// StopRequested reports whether cancellation has been requested.
func (c *Channel) StopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRequested
}

// Running reports whether the channel is emitting pulses.
func (c *Channel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == models.ChannelRunning
}

// Status returns a copy of the channel state.
func (c *Channel) Status() models.ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.ChannelStatus{
		Name:          c.name,
		OutputID:      c.line.ID(),
		State:         c.state,
		Running:       c.state == models.ChannelRunning,
		StopRequested: c.stopRequested,
		StartDelayMs:  int(c.startDelay / time.Millisecond),
		PulsesEmitted: c.pulses,
		Runs:          c.runs,
	}
}

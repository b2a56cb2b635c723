package pulse

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Level is the logic level of an output line.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Line is one digital output driven by a sequencer.
type Line interface {
	ID() int
	Set(level Level) error
	Close() error
}

// Edge is one recorded level transition.
type Edge struct {
	Level Level
	At    time.Time
}

// maxRecordedEdges bounds SimulatedLine history; older edges are dropped first.
const maxRecordedEdges = 4096

// SimulatedLine is an in-memory Line that records every transition.
type SimulatedLine struct {
	id int

	mu    sync.Mutex
	level Level
	edges []Edge
}

// NewSimulatedLine returns a LOW line with the given output id.
func NewSimulatedLine(id int) *SimulatedLine {
	return &SimulatedLine{id: id}
}

func (l *SimulatedLine) ID() int { return l.id }

func (l *SimulatedLine) Set(level Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	if len(l.edges) == maxRecordedEdges {
		l.edges = append(l.edges[:0], l.edges[1:]...)
	}
	l.edges = append(l.edges, Edge{Level: level, At: time.Now()})
	return nil
}

func (l *SimulatedLine) Close() error { return nil }

// Level returns the current level.
func (l *SimulatedLine) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Edges returns a copy of the recorded transitions, oldest first.
func (l *SimulatedLine) Edges() []Edge {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Edge, len(l.edges))
	copy(out, l.edges)
	return out
}

// RisingEdges returns the times the line went HIGH.
func (l *SimulatedLine) RisingEdges() []time.Time {
	var out []time.Time
	for _, e := range l.Edges() {
		if e.Level == High {
			out = append(out, e.At)
		}
	}
	return out
}

// DefaultSysfsRoot is where the Linux kernel exposes legacy GPIO control files.
const DefaultSysfsRoot = "/sys/class/gpio"

// SysfsLine drives a GPIO through the sysfs interface.
type SysfsLine struct {
	id    int
	value *os.File
}

var (
	levelLow  = []byte("0")
	levelHigh = []byte("1")
)

// OpenSysfsLine exports pin under root if needed, configures it as an output and
// drives it LOW.
func OpenSysfsLine(root string, pin int) (*SysfsLine, error) {
	dir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(root, "export"), []byte(strconv.Itoa(pin)), 0o200); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", pin, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat gpio %d: %w", pin, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("out"), 0o200); err != nil {
		return nil, fmt.Errorf("set gpio %d direction: %w", pin, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "value"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open gpio %d value: %w", pin, err)
	}
	l := &SysfsLine{id: pin, value: f}
	if err := l.Set(Low); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

func (l *SysfsLine) ID() int { return l.id }

func (l *SysfsLine) Set(level Level) error {
	b := levelLow
	if level == High {
		b = levelHigh
	}
	if _, err := l.value.WriteAt(b, 0); err != nil {
		return fmt.Errorf("write gpio %d %s: %w", l.id, level, err)
	}
	return nil
}

func (l *SysfsLine) Close() error {
	return l.value.Close()
}

package pulse

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"pulse_generator/internal/logger"
)

// Activity log bounds. Once the buffer grows past maxLogBytes only the trailing
// retainLogBytes are kept, which may cut the oldest surviving line in half.
const (
	maxLogBytes     = 8192
	retainLogBytes  = 4096
	maxMessageBytes = 255
	maxLineBytes    = 319
	timestampLayout = "15:04:05.000"
)

// LogSink is the bounded, append-only activity log read by the control surface.
// It is safe for any number of concurrent writers and readers.
type LogSink struct {
	mu  sync.Mutex
	buf []byte

	log *logger.Logger
	now func() time.Time
}

// NewLogSink returns an empty sink. Lines are mirrored to log at debug level when log
// is non-nil.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{
		buf: make([]byte, 0, maxLogBytes+maxLineBytes+1),
		log: log,
		now: time.Now,
	}
}

// Appendf formats one timestamped line and appends it. Overlong messages are
// truncated, never rejected.
func (s *LogSink) Appendf(format string, args ...any) {
	msg := truncateUTF8(fmt.Sprintf(format, args...), maxMessageBytes)
	line := truncateUTF8(s.now().Format(timestampLayout)+" "+msg, maxLineBytes) + "\n"

	s.mu.Lock()
	s.buf = append(s.buf, line...)
	if len(s.buf) > maxLogBytes {
		tail := make([]byte, retainLogBytes, cap(s.buf))
		copy(tail, s.buf[len(s.buf)-retainLogBytes:])
		s.buf = tail
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debugw("activity", "line", msg)
	}
}

// Snapshot returns the current buffer contents.
func (s *LogSink) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buf)
}

// Len returns the current buffer size in bytes.
func (s *LogSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

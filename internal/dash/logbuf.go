package dash

import (
	"fmt"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LogBuffer keeps the most recent log lines for the dashboard. It is an
// explicit object handed to whoever needs it, not a process-wide global.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
	next  int
	full  bool
}

func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = 100
	}
	return &LogBuffer{lines: make([]string, max), max: max}
}

// Hook adapts the buffer to zap's Hooks option so every log line lands
// here as well as on the main sink.
func (b *LogBuffer) Hook(e zapcore.Entry) error {
	b.Add(fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message))
	return nil
}

func (b *LogBuffer) Add(line string) {
	b.mu.Lock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % b.max
	if b.next == 0 {
		b.full = true
	}
	b.mu.Unlock()
}

// Recent returns buffered lines oldest first.
func (b *LogBuffer) Recent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]string, b.next)
		copy(out, b.lines[:b.next])
		return out
	}
	out := make([]string, 0, b.max)
	out = append(out, b.lines[b.next:]...)
	out = append(out, b.lines[:b.next]...)
	return out
}

package timing

import (
	"fmt"
	"time"
)

// Stopwatch tracks elapsed wall-clock time for an import run.
type Stopwatch struct {
	start time.Time
}

func Start() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// FormatDuration renders a duration as H:MM:SS, seconds rounded down.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

func (s *Stopwatch) String() string {
	return FormatDuration(s.Elapsed())
}

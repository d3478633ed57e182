package cli

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cablenet/pkg/milp"
)

const heartbeat = 10 * time.Second

// newLogger creates a logger with timestamps formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Solved (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// solveLog turns solver progress snapshots into log lines: the first layout,
// every improvement, and a heartbeat while the search is otherwise quiet.
// The solver calls it from several workers.
type solveLog struct {
	logger    *log.Logger
	timeLimit time.Duration

	mu      sync.Mutex
	best    float64
	lastLog time.Time
}

func newSolveLog(l *log.Logger, timeLimit time.Duration) *solveLog {
	return &solveLog{logger: l, timeLimit: timeLimit, best: math.Inf(1), lastLog: time.Now()}
}

func (s *solveLog) onProgress(p milp.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case p.NewIncumbent && math.IsInf(s.best, 1):
		s.logger.Infof("Initial: cost %.2f (gap %s, %d nodes)", p.Incumbent, formatGap(p.Gap()), p.Nodes)
	case p.NewIncumbent && p.Incumbent < s.best:
		s.logger.Infof("Improved: cost %.2f (↓%.2f, gap %s)", p.Incumbent, s.best-p.Incumbent, formatGap(p.Gap()))
	case time.Since(s.lastLog) >= heartbeat:
		s.logger.Infof("Searching... %v/%v elapsed, %d nodes, %d open, %d crossing cuts, gap %s",
			p.Elapsed.Truncate(time.Second), s.timeLimit, p.Nodes, p.Open, p.Lazy, formatGap(p.Gap()))
	default:
		return
	}
	s.lastLog = time.Now()
	if p.Incumbent < s.best {
		s.best = p.Incumbent
	}
}

func formatGap(g float64) string {
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return "-"
	}
	return formatPercent(g)
}

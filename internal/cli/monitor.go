package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/observability"
)

const (
	monitorRefresh = 250 * time.Millisecond
	monitorBarSize = 30
)

type (
	progressMsg  milp.Progress
	cutsMsg      struct{ added, total int }
	solveDoneMsg struct{ err error }
	tickMsg      time.Time
)

type solveStartMsg struct {
	mode string
	arcs int
}

// monitorModel is the bubbletea model behind solve --monitor. It shows the
// incumbent, the bound and the search tree while the solver runs.
type monitorModel struct {
	Instance  string
	TimeLimit time.Duration

	mode         string
	arcs         int
	last         milp.Progress
	improvements int
	rejections   int
	start        time.Time
	now          time.Time

	done     bool
	stopping bool
	err      error
	cancel   context.CancelFunc
}

func newMonitorModel(instance string, timeLimit time.Duration, cancel context.CancelFunc) monitorModel {
	now := time.Now()
	return monitorModel{
		Instance:  instance,
		TimeLimit: timeLimit,
		last:      milp.Progress{Incumbent: math.Inf(1), Bound: math.Inf(-1)},
		start:     now,
		now:       now,
		cancel:    cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(monitorRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m monitorModel) Init() tea.Cmd {
	return tick()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Stop the search; the solver still returns its best layout.
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
	case tickMsg:
		m.now = time.Time(msg)
		if !m.done {
			return m, tick()
		}
	case solveStartMsg:
		m.mode, m.arcs = msg.mode, msg.arcs
	case progressMsg:
		if msg.NewIncumbent {
			m.improvements++
		}
		m.last = milp.Progress(msg)
	case cutsMsg:
		m.rejections++
		m.last.Lazy = msg.total
	case solveDoneMsg:
		m.done, m.err = true, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	title := "Solving " + m.Instance
	if m.mode != "" {
		title += fmt.Sprintf(" (%s, %d arcs)", m.mode, m.arcs)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")

	elapsed := m.now.Sub(m.start)
	b.WriteString(progressBar(elapsed, m.TimeLimit))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s / %s", elapsed.Truncate(time.Second), m.TimeLimit)))
	b.WriteString("\n\n")

	incumbent := "-"
	if !math.IsInf(m.last.Incumbent, 1) {
		incumbent = fmt.Sprintf("%.2f", m.last.Incumbent)
	}
	bound := "-"
	if !math.IsInf(m.last.Bound, 0) {
		bound = fmt.Sprintf("%.2f", m.last.Bound)
	}
	rows := [][2]string{
		{"Incumbent", incumbent},
		{"Bound", bound},
		{"Gap", formatGap(m.last.Gap())},
		{"Nodes", fmt.Sprintf("%d (%d open)", m.last.Nodes, m.last.Open)},
		{"Improved", fmt.Sprintf("%d times", m.improvements)},
		{"Cuts", fmt.Sprintf("%d in pool, %d rejections", m.last.Lazy, m.rejections)},
	}
	key := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	for _, r := range rows {
		b.WriteString(key.Render(r[0]) + " " + StyleValue.Render(r[1]) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.done:
		b.WriteString(StyleSuccess.Render("done"))
	case m.stopping:
		b.WriteString(StyleWarning.Render("stopping, waiting for the solver..."))
	default:
		b.WriteString(StyleDim.Render("q stop early"))
	}
	b.WriteString("\n")
	return b.String()
}

func progressBar(elapsed, limit time.Duration) string {
	frac := 0.0
	if limit > 0 {
		frac = math.Min(1, float64(elapsed)/float64(limit))
	}
	full := int(frac * monitorBarSize)
	return StyleNumber.Render(strings.Repeat("█", full)) + StyleDim.Render(strings.Repeat("░", monitorBarSize-full))
}

// monitorHooks forwards solver events to a running program.
type monitorHooks struct {
	observability.NoopSolveHooks
	send func(tea.Msg)
}

func (h monitorHooks) OnSolveStart(_ context.Context, mode string, arcs int) {
	h.send(solveStartMsg{mode: mode, arcs: arcs})
}

func (h monitorHooks) OnLazyConstraint(_ context.Context, added, total int) {
	h.send(cutsMsg{added: added, total: total})
}

// runMonitored runs solve under a full-screen monitor. solve receives a
// context that is cancelled when the user stops the search and a progress
// callback to pass to the solver.
func runMonitored(ctx context.Context, instance string, timeLimit time.Duration, solve func(context.Context, func(milp.Progress)) error) error {
	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newMonitorModel(instance, timeLimit, cancel), tea.WithContext(ctx))
	observability.SetSolveHooks(monitorHooks{send: p.Send})
	defer observability.SetSolveHooks(observability.NoopSolveHooks{})

	errc := make(chan error, 1)
	go func() {
		err := solve(solveCtx, func(pr milp.Progress) { p.Send(progressMsg(pr)) })
		p.Send(solveDoneMsg{err: err})
		errc <- err
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-errc
		return err
	}
	return <-errc
}

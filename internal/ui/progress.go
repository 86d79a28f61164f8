package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bcamacho/RightsContract/internal/confirm"
	tea "github.com/charmbracelet/bubbletea"
)

// TransitionMsg feeds a confirmation state change into the Progress model.
type TransitionMsg confirm.Transition

// DoneMsg ends the Progress view with the outcome of the operation.
type DoneMsg struct {
	Err    error
	Result string // line shown on success
}

type progressTickMsg struct{}

// Progress is the Bubble Tea model shown while a transaction is mined.
type Progress struct {
	Label string

	hash    string
	state   confirm.State
	seen    bool
	attempt int
	elapsed time.Duration
	frame   int

	done    bool
	err     error
	result  string
	aborted bool
}

// NewProgress returns a model labelled with the operation being awaited.
func NewProgress(label string) Progress {
	return Progress{Label: label}
}

// Aborted reports whether the user quit before the operation finished.
func (m Progress) Aborted() bool { return m.aborted }

// Err returns the operation error delivered by DoneMsg.
func (m Progress) Err() error { return m.err }

func progressTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return progressTickMsg{} })
}

func (m Progress) Init() tea.Cmd { return progressTick() }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}

	case progressTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, progressTick()

	case TransitionMsg:
		m.seen = true
		m.hash = msg.Hash.Hex()
		m.state = msg.State
		m.attempt = msg.Attempt
		m.elapsed = msg.Elapsed

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) View() string {
	var sb strings.Builder
	switch {
	case m.aborted:
		sb.WriteString(Warn(m.Label + ": stopped waiting"))
		if m.hash != "" {
			sb.WriteString(" " + Meta("tx "+m.hash))
		}
	case m.done && m.err != nil:
		sb.WriteString(Err(m.Label + ": " + shortErr(m.err.Error(), 120)))
	case m.done:
		line := m.result
		if line == "" {
			line = m.Label + " done"
		}
		sb.WriteString(Success(line))
	default:
		sb.WriteString(StyleNetwork.Render(spinnerFrames[m.frame]) + "  " + m.Label)
		if m.seen {
			sb.WriteString("  " + Addr(TruncateAddr(m.hash)))
			sb.WriteString("  " + stateLabel(m.state))
			sb.WriteString(Meta(fmt.Sprintf("  lookup %d · %s", m.attempt, m.elapsed.Truncate(100*time.Millisecond))))
		} else {
			sb.WriteString("  " + Meta("sending…"))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func stateLabel(s confirm.State) string {
	switch s {
	case confirm.Confirmed:
		return StyleSuccess.Render(s.String())
	case confirm.TimedOut, confirm.Errored:
		return StyleError.Render(s.String())
	case confirm.Pending:
		return StyleWarning.Render(s.String())
	default:
		return StyleInfo.Render(s.String())
	}
}

// Observe forwards transitions to fn. It is the hook handed to factories
// and clients as their confirmation observer; Set swaps the target once the
// view exists.
type Observe struct {
	fn func(confirm.Transition)
}

// Set replaces the forwarding target. nil mutes the observer.
func (o *Observe) Set(fn func(confirm.Transition)) { o.fn = fn }

// Notify delivers t to the current target.
func (o *Observe) Notify(t confirm.Transition) {
	if o != nil && o.fn != nil {
		o.fn(t)
	}
}

// Work is an operation that reports confirmation transitions while it runs.
// It returns the line to show on success.
type Work func(ctx context.Context) (string, error)

// RunProgress runs work and shows its confirmation progress. On a terminal
// it drives the Progress view; otherwise it prints one plain line per state
// change. Quitting the view cancels the context passed to work.
func RunProgress(ctx context.Context, out io.Writer, tty bool, label string, obs *Observe, work Work) error {
	if !tty {
		obs.Set(PlainObserver(out, label))
		defer obs.Set(nil)
		line, err := work(ctx)
		if err == nil && line != "" {
			fmt.Fprintln(out, line)
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(label), tea.WithOutput(out), tea.WithContext(ctx))
	obs.Set(func(t confirm.Transition) { p.Send(TransitionMsg(t)) })
	defer obs.Set(nil)

	result := make(chan error, 1)
	go func() {
		line, err := work(ctx)
		result <- err
		p.Send(DoneMsg{Err: err, Result: line})
	}()

	final, runErr := p.Run()
	if m, ok := final.(Progress); ok && m.aborted {
		cancel()
		<-result
		return context.Canceled
	}
	err := <-result
	if err == nil && runErr != nil {
		return fmt.Errorf("progress view: %w", runErr)
	}
	return err
}

// PlainObserver prints state changes as plain lines. Repeated pending
// lookups are reported once.
func PlainObserver(out io.Writer, label string) func(confirm.Transition) {
	var last confirm.State = -1
	return func(t confirm.Transition) {
		if t.State == last {
			return
		}
		last = t.State
		line := fmt.Sprintf("%s: tx %s %s", label, t.Hash.Hex(), t.State)
		if t.State.Terminal() {
			line += fmt.Sprintf(" after %d lookup(s), %s", t.Attempt, t.Elapsed.Round(time.Millisecond))
		}
		if t.Err != nil {
			line += ": " + t.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}

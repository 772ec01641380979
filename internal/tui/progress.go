// Package tui renders run progress and the final diagnosis in the
// terminal using Bubble Tea. Non-interactive runs fall back to plain
// line output.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
)

const (
	iconPending = "○"
	iconSuccess = "✓"
	iconError   = "✗"
)

type fetchStatus int

const (
	statusPending fetchStatus = iota
	statusActive
	statusDone
	statusFailed
)

// fetchStartedMsg and fetchFinishedMsg mirror the observer callbacks.
// Rows are addressed by position in fetch order.
type fetchStartedMsg struct {
	index int
}

type fetchFinishedMsg struct {
	index int
	err   error
}

// runDoneMsg stops the display once all fetches are accounted for.
type runDoneMsg struct{}

type fetchRow struct {
	label    string
	status   fetchStatus
	started  time.Time
	duration time.Duration
	err      error
}

type progressModel struct {
	rows    []fetchRow
	spinner spinner.Model
	cancel  context.CancelFunc
	done    bool
	width   int
}

func newProgressModel(labels []string, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle

	rows := make([]fetchRow, len(labels))
	for i, label := range labels {
		rows[i] = fetchRow{label: label}
	}
	return progressModel{rows: rows, spinner: s, cancel: cancel}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case fetchStartedMsg:
		if msg.index >= 0 && msg.index < len(m.rows) {
			m.rows[msg.index].status = statusActive
			m.rows[msg.index].started = time.Now()
		}

	case fetchFinishedMsg:
		if msg.index >= 0 && msg.index < len(m.rows) {
			row := &m.rows[msg.index]
			row.duration = time.Since(row.started)
			if msg.err != nil {
				row.status = statusFailed
				row.err = msg.err
			} else {
				row.status = statusDone
			}
		}

	case runDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	for _, row := range m.rows {
		switch row.status {
		case statusActive:
			b.WriteString("  ")
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
			b.WriteString(row.label)
		case statusDone:
			b.WriteString("  ")
			b.WriteString(successStyle.Render(iconSuccess))
			b.WriteString(" ")
			b.WriteString(row.label)
			b.WriteString(durationStyle.Render(fmt.Sprintf(" (%s)", row.duration.Round(time.Millisecond))))
		case statusFailed:
			b.WriteString("  ")
			b.WriteString(errorStyle.Render(iconError))
			b.WriteString(" ")
			b.WriteString(row.label)
			b.WriteString(" ")
			b.WriteString(errorStyle.Render(row.err.Error()))
		default:
			b.WriteString("  ")
			b.WriteString(pendingStyle.Render(iconPending + " " + row.label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Progress shows one status line per datasource while fetches run. It
// implements the orchestrator's observer; callbacks may arrive from
// concurrent goroutines and are forwarded to the Bubble Tea program.
type Progress struct {
	model   progressModel
	program *tea.Program
	index   map[datasource.DataSource]int
	done    chan error
}

// NewProgress builds the display for the given sources in fetch order.
// cancel is invoked when the user interrupts with ctrl+c.
func NewProgress(sources []datasource.DataSource, cancel context.CancelFunc) *Progress {
	ordered := make([]datasource.DataSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderNo() < ordered[j].OrderNo()
	})

	index := make(map[datasource.DataSource]int, len(ordered))
	labels := make([]string, len(ordered))
	for i, src := range ordered {
		index[src] = i
		labels[i] = src.Label()
	}

	return &Progress{
		model: newProgressModel(labels, cancel),
		index: index,
		done:  make(chan error, 1),
	}
}

// Start runs the display in the background. Extra program options are
// for tests (custom input and output).
func (p *Progress) Start(ctx context.Context, opts ...tea.ProgramOption) {
	programOpts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
	}, opts...)

	p.program = tea.NewProgram(p.model, programOpts...)
	go func() {
		_, err := p.program.Run()
		p.done <- err
	}()
}

// FetchStarted implements the orchestrator observer.
func (p *Progress) FetchStarted(src datasource.DataSource) {
	if p.program == nil {
		return
	}
	if i, ok := p.index[src]; ok {
		p.program.Send(fetchStartedMsg{index: i})
	}
}

// FetchFinished implements the orchestrator observer.
func (p *Progress) FetchFinished(src datasource.DataSource, err error) {
	if p.program == nil {
		return
	}
	if i, ok := p.index[src]; ok {
		p.program.Send(fetchFinishedMsg{index: i, err: err})
	}
}

// Finish stops the display and waits for the final frame to flush.
func (p *Progress) Finish() error {
	if p.program == nil {
		return nil
	}
	p.program.Send(runDoneMsg{})
	return <-p.done
}

// PlainProgress writes one line per fetch event for non-interactive
// runs. It implements the orchestrator observer.
type PlainProgress struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPlainProgress(out io.Writer) *PlainProgress {
	return &PlainProgress{out: out}
}

func (p *PlainProgress) FetchStarted(src datasource.DataSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "fetching %s ...\n", src.Label())
}

func (p *PlainProgress) FetchFinished(src datasource.DataSource, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.out, "%s failed: %v\n", src.Label(), err)
		return
	}
	fmt.Fprintf(p.out, "%s done\n", src.Label())
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

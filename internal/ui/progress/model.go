// Package progress shows a spinner with the pipeline stage while a run is
// in flight.
package progress

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailshot/internal/keys"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/pipeline"
	"github.com/nhle/mailshot/internal/theme"
)

// StageMsg reports a stage transition of the running pipeline.
type StageMsg struct {
	Stage pipeline.Stage
}

// DoneMsg carries the finished result.
type DoneMsg struct {
	Result model.PipelineResult
}

// Model is the Bubble Tea model of the progress view.
type Model struct {
	title     string
	spinner   spinner.Model
	help      help.Model
	keys      *keys.KeyMap
	cancel    context.CancelFunc
	completed []pipeline.Stage
	current   pipeline.Stage
	canceling bool
	result    *model.PipelineResult
}

// New creates a progress model. cancel is called when the user presses
// the cancel key.
func New(title string, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		title:   title,
		spinner: sp,
		help:    help.New(),
		keys:    keys.DefaultKeyMap(),
		cancel:  cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StageMsg:
		if msg.Stage == pipeline.StageFailed || msg.Stage == pipeline.StageIdle {
			return m, nil
		}
		if m.current != "" && m.current != msg.Stage {
			m.completed = append(m.completed, m.current)
		}
		m.current = msg.Stage
		return m, nil

	case DoneMsg:
		res := msg.Result
		m.result = &res
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.canceling {
			m.canceling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress view.
func (m Model) View() string {
	if m.result != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, s := range m.completed {
		fmt.Fprintf(&b, "%s %s\n", theme.SuccessStyle.Render("✓"), s.Label())
	}

	label := "Starting"
	if m.current != "" {
		label = m.current.Label()
	}
	if m.canceling {
		label = "Canceling"
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), theme.StageStyle(string(m.current)).Render(label))

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Result returns the finished result, or nil while the run is going.
func (m Model) Result() *model.PipelineResult {
	return m.result
}

// RunFunc performs one pipeline run, reporting stages to observe.
type RunFunc func(ctx context.Context, observe pipeline.Observer) model.PipelineResult

// Run executes fn while showing the progress view on out. It returns once
// fn has returned, even after the user canceled.
func Run(ctx context.Context, out io.Writer, title string, fn RunFunc) (model.PipelineResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(title, cancel), tea.WithOutput(out), tea.WithoutSignalHandler())

	done := make(chan model.PipelineResult, 1)
	go func() {
		res := fn(ctx, func(s pipeline.Stage) { p.Send(StageMsg{Stage: s}) })
		done <- res
		p.Send(DoneMsg{Result: res})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return model.PipelineResult{}, fmt.Errorf("running progress view: %w", err)
	}

	return <-done, nil
}

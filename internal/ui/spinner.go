package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// getTTY opens /dev/tty for direct terminal access (bypasses redirections)
func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// spinnerModel is the bubbletea model for the loading spinner
type spinnerModel struct {
	spinner   spinner.Model
	message   string
	cancel    context.CancelFunc
	cancelled bool
	done      bool
	dimStyle  lipgloss.Style
}

type spinnerDoneMsg struct{}

func newSpinnerModel(message string, cancel context.CancelFunc, tty *os.File) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	r := lipgloss.NewRenderer(tty)
	s.Style = r.NewStyle().Foreground(GetTheme().Spinner)
	return spinnerModel{
		spinner:  s,
		message:  message,
		cancel:   cancel,
		dimStyle: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEscape || msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.cancel()
			return m, tea.Quit
		}
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.spinner.View() + " " + m.message + " " + m.dimStyle.Render("(esc to cancel)")
}

// Spin shows a spinner while fn runs. Esc or ctrl-c cancels the context
// and returns context.Canceled. When no terminal is available, fn runs
// without a spinner.
func Spin(ctx context.Context, message string, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tty, ttyErr := getTTY()
	if ttyErr != nil {
		return fn(ctx)
	}
	defer tty.Close()

	model := newSpinnerModel(message, cancel, tty)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(tty))

	errc := make(chan error, 1)
	go func() {
		errc <- fn(ctx)
		p.Send(spinnerDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		return <-errc
	}

	if m, ok := finalModel.(spinnerModel); ok && m.cancelled {
		// Wait for fn to notice the cancelled context.
		<-errc
		return context.Canceled
	}

	return <-errc
}

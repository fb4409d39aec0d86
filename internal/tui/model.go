// Package tui is a terminal front end for a pagination controller.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/navigation"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/Sternrassler/voog-pager/pkg/render"
)

// Config wires the controller and the surfaces it renders into. The
// controller must have been built over View and Location with
// Strategies so that content is plain text.
type Config struct {
	Pager    *pagination.Controller
	View     *render.Buffer
	Location *location.Memory
	Title    string
}

// New returns a tea.Model ready to be mounted into a Program. The context
// bounds every fetch the model starts.
func New(ctx context.Context, config Config) tea.Model {
	if config.Title == "" {
		config.Title = "voogpager"
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = subtitleStyle

	return &model{
		ctx:         ctx,
		config:      config,
		spinner:     spin,
		infoMessage: "Loading…",
	}
}

type model struct {
	ctx     context.Context
	config  Config
	spinner spinner.Model

	pending     int
	jump        string
	width       int
	infoMessage string
	helpVisible bool
}

// navResultMsg reports a finished navigation command.
type navResultMsg struct {
	action string
	issued bool
	err    error
}

// navigateCmd runs fn off the UI loop; controller calls block until the
// fetch completes.
func (m *model) navigateCmd(action string, fn func(ctx context.Context) bool) tea.Cmd {
	ctx := m.ctx
	return m.track(func() tea.Msg {
		return navResultMsg{action: action, issued: fn(ctx)}
	})
}

// historyStep moves the history with step and reports whether the pop
// made the controller start a fetch. Pop listeners run inside step.
func (m *model) historyStep(step func() bool) func(context.Context) bool {
	pager := m.config.Pager
	return func(context.Context) bool {
		var started atomic.Bool
		off := pager.On(pagination.EventFetchStart, func(pagination.Event) { started.Store(true) })
		defer off()
		return step() && started.Load()
	}
}

// track counts cmd as pending and starts the spinner when it is the first.
func (m *model) track(cmd tea.Cmd) tea.Cmd {
	m.pending++
	if m.pending == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *model) Init() tea.Cmd {
	pager := m.config.Pager
	ctx := m.ctx
	return m.track(func() tea.Msg {
		err := pager.Init(ctx)
		return navResultMsg{action: "init", issued: err == nil, err: err}
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		// Ticks stop once nothing is pending
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case navResultMsg:
		if m.pending > 0 {
			m.pending--
		}
		switch {
		case msg.err != nil:
			m.infoMessage = msg.err.Error()
		case !msg.issued:
			m.infoMessage = fmt.Sprintf("%s: nothing loaded", msg.action)
		default:
			state := m.config.Pager.State()
			m.infoMessage = fmt.Sprintf("%s: page %d", msg.action, state.CurrentPage)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	pager := m.config.Pager
	loc := m.config.Location

	switch key.String() {
	case "ctrl+c", "q":
		pager.Destroy()
		return m, tea.Quit
	case "right", "l", "n":
		return m, m.navigateCmd("next", pager.GoToNextPage)
	case "left", "h", "p":
		return m, m.navigateCmd("prev", pager.GoToPrevPage)
	case "g":
		return m, m.navigateCmd("first", pager.GoToFirstPage)
	case "G":
		return m, m.navigateCmd("last", pager.GoToLastPage)
	case "r":
		return m, m.navigateCmd("refresh", pager.Refresh)
	case "b":
		return m, m.navigateCmd("back", m.historyStep(loc.Back))
	case "f":
		return m, m.navigateCmd("forward", m.historyStep(loc.Forward))
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "esc":
		m.jump = ""
		return m, nil
	case "backspace":
		if m.jump != "" {
			m.jump = m.jump[:len(m.jump)-1]
		}
		return m, nil
	case "enter":
		if m.jump == "" {
			return m, nil
		}
		page, err := strconv.Atoi(m.jump)
		m.jump = ""
		if err != nil {
			m.infoMessage = "Not a page number."
			return m, nil
		}
		return m, m.navigateCmd("jump", func(ctx context.Context) bool {
			return pager.GoToPage(ctx, pagination.Page(page))
		})
	}

	if key.Type == tea.KeyRunes {
		for _, r := range key.Runes {
			if r < '0' || r > '9' {
				return m, nil
			}
		}
		m.jump += string(key.Runes)
	}
	return m, nil
}

func (m *model) View() string {
	state := m.config.Pager.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.config.Title))
	b.WriteString("  ")
	if state.TotalPages > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("page %d of %d", state.CurrentPage, state.TotalPages)))
	}
	if state.IsFetching || m.pending > 0 {
		b.WriteString("  ")
		b.WriteString(m.spinner.View())
		b.WriteString(helperStyle.Render(" fetching…"))
	}
	b.WriteString("\n")
	b.WriteString(helperStyle.Render(m.config.Location.URL()))
	b.WriteString("\n\n")

	content := m.config.View.Content()
	if len(content) == 0 {
		b.WriteString(helperStyle.Render("(no content)"))
		b.WriteString("\n")
	}
	for i, fragment := range content {
		line := string(fragment)
		switch {
		case strings.HasPrefix(line, errorPrefix):
			b.WriteString(errorStyle.Render(strings.TrimPrefix(line, errorPrefix)))
		case len(content) == 1 && state.TotalPages == 0:
			b.WriteString(helperStyle.Render(line))
		default:
			b.WriteString(fmt.Sprintf("%3d. %s", i+1, line))
		}
		b.WriteString("\n")
	}

	if navs := m.config.View.Navigations(); len(navs) > 0 {
		b.WriteString("\n")
		b.WriteString(navigationLine(navs[0].Entries))
		b.WriteString("\n")
	}

	if m.jump != "" {
		b.WriteString("\n")
		b.WriteString(keyStyle.Render("go to"))
		b.WriteString(" ")
		b.WriteString(m.jump)
		b.WriteString("_\n")
	}

	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render(m.infoMessage))
	b.WriteString("\n")
	if m.helpVisible {
		b.WriteString(helpBoxStyle.Render(helpText))
	} else {
		b.WriteString(helperStyle.Render("←/→ page  g/G first/last  b/f back/forward  0-9 enter jump  r refresh  ? help  q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

const helpText = `←, h, p   previous page
→, l, n   next page
g / G     first / last page
b / f     history back / forward
0-9 enter jump to page
r         refresh current page
q         quit`

// navigationLine renders entries as a single line of page links.
func navigationLine(entries []navigation.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var label string
		switch e.Kind {
		case navigation.KindPrev:
			label = "‹"
		case navigation.KindNext:
			label = "›"
		case navigation.KindEllipsis:
			label = "…"
		default:
			label = strconv.Itoa(e.Page)
		}

		switch {
		case e.Disabled:
			parts = append(parts, disabledStyle.Render(label))
		case e.Current:
			parts = append(parts, currentStyle.Render(label))
		default:
			parts = append(parts, pageStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	helpBoxStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	pageStyle      = lipgloss.NewStyle().Padding(0, 1)
	currentStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166"))
	disabledStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("240"))
)

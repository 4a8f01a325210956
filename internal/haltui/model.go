package haltui

import (
	"fmt"
	"sort"
	"time"

	"github.com/kay54068/halremote-go/internal/halpin"
	"github.com/kay54068/halremote-go/internal/halsession"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 200 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the root Bubble Tea model for cmd/halmonitor. It never writes to
// the Session; it only polls the read-only accessors exposed for exactly
// this purpose.
type Model struct {
	session *halsession.Session

	width  int
	height int

	connState   string
	cmdState    string
	subState    string
	lastErr     string
	selectedIdx int
	pins        []halsession.PinSnapshot
}

// New creates a dashboard Model bound to an already-constructed Session.
// The caller is responsible for calling SetReady/SetPinSource on it; the
// dashboard only observes.
func New(s *halsession.Session) Model {
	return Model{session: s}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if len(m.pins) > 0 {
				m.selectedIdx = (m.selectedIdx + 1) % len(m.pins)
			}
		case "k", "up":
			if len(m.pins) > 0 {
				m.selectedIdx = (m.selectedIdx - 1 + len(m.pins)) % len(m.pins)
			}
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m *Model) refresh() {
	m.connState = m.session.ConnectionState().String()
	m.cmdState = m.session.CommandChannelState().String()
	m.subState = m.session.SubscribeChannelState().String()
	if err := m.session.LastError(); err.Kind != halsession.ErrNone {
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
	pins := m.session.Snapshot()
	sort.Slice(pins, func(i, j int) bool { return pins[i].Name < pins[j].Name })
	m.pins = pins
	if m.selectedIdx >= len(m.pins) {
		m.selectedIdx = 0
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderStatusBar(),
		m.renderPinTable(),
		styleDimmed.Render("  j/k:navigate  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusBar() string {
	conn := lipgloss.NewStyle().Foreground(connectionColor(m.connState)).Render("● " + m.connState)
	cmd := lipgloss.NewStyle().Foreground(channelColor(m.cmdState)).Render("command:" + m.cmdState)
	sub := lipgloss.NewStyle().Foreground(channelColor(m.subState)).Render("subscribe:" + m.subState)

	sep := lipgloss.NewStyle().Foreground(colorBorder).Render(" | ")
	content := conn + sep + cmd + sep + sub
	if m.lastErr != "" {
		content += sep + lipgloss.NewStyle().Foreground(colorDanger).Render(m.lastErr)
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(colorBorder).
		Render(content)
}

func (m Model) renderPinTable() string {
	if len(m.pins) == 0 {
		return styleDimmed.Render("  no pins registered")
	}

	header := styleHeader.Render(fmt.Sprintf("  %-24s %-6s %-8s %-10s %8s", "NAME", "DIR", "HANDLE", "SYNCED", "VALUE"))
	lines := []string{header}
	for i, p := range m.pins {
		prefix := "  "
		if i == m.selectedIdx {
			prefix = "> "
		}
		handle := "-"
		if p.HasHandle {
			handle = fmt.Sprintf("%d", p.Handle)
		}
		synced := "no"
		syncColor := colorWarning
		if p.Synced {
			synced = "yes"
			syncColor = colorHealthy
		}
		line := fmt.Sprintf("%-24s %-6s %-8s ", p.Name, p.Direction.String(), handle) +
			lipgloss.NewStyle().Foreground(syncColor).Render(fmt.Sprintf("%-10s", synced)) +
			fmt.Sprintf("%8s", formatValue(p.Value))
		if i == m.selectedIdx {
			line = styleSelected.Render(line)
		}
		lines = append(lines, prefix+line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatValue(v halpin.Value) string {
	switch v.Type {
	case halpin.Float64:
		return fmt.Sprintf("%.3f", v.Float)
	case halpin.Bool:
		return fmt.Sprintf("%v", v.Bit)
	case halpin.Int32:
		return fmt.Sprintf("%d", v.Int32)
	case halpin.Uint32:
		return fmt.Sprintf("%d", v.Uint32)
	default:
		return "?"
	}
}

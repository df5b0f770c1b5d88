package listview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/datasources/internal/observe"
)

// KeyMap holds the widget's navigation bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Clear  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Up, k.Down} }

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Top, k.Bottom, k.Clear}}
}

// Styles used to render the widget.
type Styles struct {
	Row      lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style
	Empty    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Row: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1),
		Empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 2),
	}
}

// Update handles layout and navigation messages.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Up):
			m.step(-1)
		case key.Matches(msg, m.Keys.Down):
			m.step(+1)
		case key.Matches(msg, m.Keys.Top):
			m.selectFlat(0)
		case key.Matches(msg, m.Keys.Bottom):
			m.selectFlat(m.Len() - 1)
		case key.Matches(msg, m.Keys.Clear):
			m.Select(nil)
		}
	}
	return nil
}

// step moves the cursor by delta rows across sections, collapsing the
// selection to that row. With nothing selected it selects the first row.
func (m *Model) step(delta int) {
	cur := m.Cursor()
	if cur == nil {
		m.selectFlat(0)
		return
	}
	m.selectFlat(m.flatIndex(cur) + delta)
}

func (m *Model) selectFlat(i int) {
	n := m.Len()
	if n == 0 {
		return
	}
	i = max(0, min(i, n-1))
	for s, sec := range m.sections {
		if i < len(sec.rows) {
			m.selected = []observe.IndexPath{observe.Path(s, i)}
			return
		}
		i -= len(sec.rows)
	}
}

func (m *Model) flatIndex(p observe.IndexPath) int {
	i := 0
	for s := 0; s < p.Section(); s++ {
		i += len(m.sections[s].rows)
	}
	return i + p.Item()
}

// View renders the visible rows, scrolled so the selection stays on screen.
func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	if m.Len() == 0 {
		return m.Styles.Empty.Render("Nothing here yet.")
	}

	titler, _ := m.src.(SectionTitler)
	cur := m.Cursor()
	var lines []string
	cursor := -1
	for s, sec := range m.sections {
		if titler != nil {
			if title := titler.SectionTitle(s); title != "" {
				lines = append(lines, m.Styles.Header.Render(title))
			}
		}
		for i, r := range sec.rows {
			style := m.Styles.Row
			p := observe.Path(s, i)
			if observe.ContainsPath(m.selected, p) {
				style = m.Styles.Selected
			}
			if cur.Equal(p) {
				cursor = len(lines)
			}
			lines = append(lines, style.Width(m.width).MaxWidth(m.width).Render(r.text))
		}
	}

	height := max(m.height, 1)
	if cursor >= 0 {
		if cursor < m.offset {
			m.offset = cursor
		}
		if cursor >= m.offset+height {
			m.offset = cursor - height + 1
		}
	}
	m.offset = max(0, min(m.offset, len(lines)-height))
	end := min(len(lines), m.offset+height)
	return strings.Join(lines[m.offset:end], "\n")
}

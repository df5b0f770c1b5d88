package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/datasources/internal/batch"
	"github.com/abelbrown/datasources/internal/codec"
	"github.com/abelbrown/datasources/internal/logging"
	"github.com/abelbrown/datasources/internal/metrics"
	"github.com/abelbrown/datasources/internal/observe"
	"github.com/abelbrown/datasources/internal/otel"
	"github.com/abelbrown/datasources/internal/store"
	"github.com/abelbrown/datasources/internal/ui/listview"
)

// historyHeight is the number of lines the history pane takes, title included.
const historyHeight = 7

// defaultPriority is given to tasks created from the input bar.
const defaultPriority = 3

type inputMode int

const (
	modeNone inputMode = iota
	modeAdd
	modeRename
)

// Options wires the App to the outside world. Every func may be nil.
type Options struct {
	// Codec serializes the board. Nil uses JSON.
	Codec codec.Codec
	// Save returns a Cmd that persists data and answers with SnapshotSaved.
	Save func(data []byte, format string) tea.Cmd
	// Load returns a Cmd that answers with SnapshotLoaded.
	Load func() tea.Cmd
	// History returns a Cmd that answers with HistoryLoaded.
	History func() tea.Cmd
	// Autosave saves after every edit.
	Autosave bool

	// Scheduler runs deferred batcher and widget work. Nil runs it inline.
	Scheduler   batch.Scheduler
	SettleDelay time.Duration
	Metrics     *metrics.Metrics
	Events      *otel.Logger
	Ring        *otel.RingBuffer

	Theme     string
	Compact   bool
	ShowDebug bool
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold *store.Store. Snapshots arrive via messages.
type App struct {
	opts  Options
	codec codec.Codec
	log   *log.Logger

	board   *Board
	batcher *batch.Batcher
	list    *listview.Model
	history *historyPane

	keys  keyMap
	help  help.Model
	input textinput.Model
	mode  inputMode
	// renaming is the id of the task being renamed.
	renaming string

	showHistory bool
	showDebug   bool
	showHelp    bool

	status  string
	err     error
	width   int
	height  int
	ready   bool
	loading bool
	now     func() time.Time
}

// NewApp builds the board, its list widget and the batcher between them.
func NewApp(opts Options) App {
	c := opts.Codec
	if c == nil {
		c = codec.JSON{}
	}
	a := App{
		opts:      opts,
		codec:     c,
		log:       logging.WithPrefix("ui"),
		board:     NewBoard(),
		keys:      defaultKeyMap(),
		help:      help.New(),
		input:     textinput.New(),
		showDebug: opts.ShowDebug,
		loading:   opts.Load != nil,
		now:       time.Now,
	}

	styles := listStyles(opts.Theme)
	if opts.Compact {
		styles = compactStyles(styles)
	}

	a.list = listview.New(listview.FlatSource{Len: a.board.Sorted.Len, Render: a.board.Row}, opts.Scheduler)
	a.list.Styles = styles
	a.batcher = batch.New(a.list, batch.Config{
		Scheduler:   opts.Scheduler,
		SettleDelay: opts.SettleDelay,
		Metrics:     opts.Metrics,
		Events:      opts.Events,
		Name:        "board",
	})
	observe.Watch(a.board.Sorted, observe.KindList, a.batcher)

	a.history = newHistoryPane(opts.Scheduler, batch.Config{
		Scheduler:   opts.Scheduler,
		SettleDelay: opts.SettleDelay,
		Events:      opts.Events,
	})
	a.history.list.Styles = styles

	a.keys.navigate = a.list.Keys.FullHelp()[0]
	a.input.CharLimit = 120
	a.input.Prompt = ""
	return a
}

// Init loads the saved board.
func (a App) Init() tea.Cmd {
	if a.opts.Load != nil {
		return a.opts.Load()
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.opts.Events.Tracing() {
		a.opts.Events.Trace("ui", fmt.Sprintf("%T", msg))
	}

	switch msg := msg.(type) {
	case listview.RunMsg:
		msg.Run()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.help.Width = msg.Width
		a.input.Width = max(msg.Width-12, 10)
		a.layout()
		return a, nil

	case SnapshotLoaded:
		a.loading = false
		a.handleLoaded(msg)
		a.layout()
		return a, nil

	case SnapshotSaved:
		a.opts.Metrics.Save(msg.Err)
		if msg.Err != nil {
			a.fail("save", msg.Err)
			return a, nil
		}
		a.status = fmt.Sprintf("saved %d bytes", msg.Size)
		if a.showHistory {
			return a, a.loadHistory()
		}
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			a.fail("history", msg.Err)
			return a, nil
		}
		if d := a.history.set(msg.Revisions); !d.Empty() {
			a.log.Debug("history changed", "diff", d.String())
		}
		return a, nil
	}

	if a.mode != modeNone {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleLoaded(msg SnapshotLoaded) {
	if errors.Is(msg.Err, store.ErrNotFound) {
		a.status = "new board"
		return
	}
	if msg.Err != nil {
		a.fail("load", msg.Err)
		return
	}
	c, err := codec.ByName(msg.Format)
	if err != nil {
		a.fail("load", err)
		return
	}
	if err := a.board.Decode(c, msg.Data); err != nil {
		a.fail("load", err)
		return
	}
	a.opts.Events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindContainerLoad,
		Comp:   "ui",
		Source: "board",
		Count:  a.board.Tasks.Len(),
		Msg:    msg.Format,
	})
	a.status = fmt.Sprintf("loaded %d tasks", a.board.Tasks.Len())
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode != modeNone {
		return a.handleInputKey(msg)
	}

	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
		a.layout()
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, a.keys.History):
		a.showHistory = !a.showHistory
		a.layout()
		if a.showHistory {
			return a, a.loadHistory()
		}
		return a, nil

	case key.Matches(msg, a.keys.Add):
		a.mode = modeAdd
		a.input.Placeholder = "New task"
		a.input.SetValue("")
		a.layout()
		return a, a.input.Focus()

	case key.Matches(msg, a.keys.Rename):
		id, ok := a.current()
		if !ok {
			return a, nil
		}
		t, _ := a.board.Tasks.Get(id)
		a.mode = modeRename
		a.renaming = id
		a.input.Placeholder = ""
		a.input.SetValue(t.Title)
		a.input.CursorEnd()
		a.layout()
		return a, a.input.Focus()

	case key.Matches(msg, a.keys.Toggle):
		if id, ok := a.current(); ok {
			a.board.Toggle(id)
			return a, a.autosave()
		}
		return a, nil

	case key.Matches(msg, a.keys.Raise):
		if id, ok := a.current(); ok {
			a.board.Bump(id, +1)
			return a, a.autosave()
		}
		return a, nil

	case key.Matches(msg, a.keys.Lower):
		if id, ok := a.current(); ok {
			a.board.Bump(id, -1)
			return a, a.autosave()
		}
		return a, nil

	case key.Matches(msg, a.keys.Delete):
		if id, ok := a.current(); ok {
			a.board.Remove(id)
			return a, a.autosave()
		}
		return a, nil

	case key.Matches(msg, a.keys.Filter):
		a.status = "filter: " + a.board.CycleFilter().String()
		return a, nil

	case key.Matches(msg, a.keys.Clear):
		n := a.board.ClearDone()
		if n == 0 {
			return a, nil
		}
		a.opts.Events.Emit(otel.Event{
			Level:  otel.LevelInfo,
			Kind:   otel.KindContainerMerge,
			Comp:   "ui",
			Source: "board",
			Count:  n,
		})
		a.status = fmt.Sprintf("cleared %d done", n)
		return a, a.autosave()

	case key.Matches(msg, a.keys.Save):
		return a, a.save()

	case key.Matches(msg, a.keys.Reload):
		if a.opts.Load != nil {
			a.loading = true
			return a, a.opts.Load()
		}
		return a, nil
	}

	a.list.Update(msg)
	return a, nil
}

func (a App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.endInput()
		return a, nil

	case key.Matches(msg, a.keys.Confirm):
		title := strings.TrimSpace(a.input.Value())
		mode, id := a.mode, a.renaming
		a.endInput()
		if title == "" {
			return a, nil
		}
		switch mode {
		case modeAdd:
			id = a.board.Add(title, defaultPriority)
			if i := a.board.Sorted.IndexOf(id); i >= 0 {
				a.list.Select(nil)
				a.list.Select(observe.Path(0, i))
			}
		case modeRename:
			if !a.board.Rename(id, title) {
				return a, nil
			}
		}
		return a, a.autosave()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) endInput() {
	a.mode = modeNone
	a.renaming = ""
	a.input.Blur()
	a.input.SetValue("")
	a.layout()
}

// current returns the id of the task under the cursor.
func (a *App) current() (string, bool) {
	p := a.list.Cursor()
	if p == nil {
		return "", false
	}
	return a.board.KeyAt(p.Item())
}

func (a *App) autosave() tea.Cmd {
	if !a.opts.Autosave {
		return nil
	}
	return a.save()
}

func (a *App) save() tea.Cmd {
	if a.opts.Save == nil {
		return nil
	}
	data, err := a.board.Encode(a.codec)
	if err != nil {
		a.fail("save", err)
		return nil
	}
	a.opts.Events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindContainerSave,
		Comp:   "ui",
		Source: "board",
		Count:  a.board.Tasks.Len(),
		Msg:    a.codec.Name(),
	})
	return a.opts.Save(data, a.codec.Name())
}

func (a *App) loadHistory() tea.Cmd {
	if a.opts.History == nil {
		return nil
	}
	return a.opts.History()
}

func (a *App) fail(op string, err error) {
	a.err = fmt.Errorf("%s: %w", op, err)
	a.log.Error("board operation failed", "op", op, "err", err)
	a.opts.Events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindError, Comp: "ui", Msg: op, Err: err.Error()})
}

// layout gives the list whatever height the other bars leave over.
func (a *App) layout() {
	if !a.ready {
		return
	}
	h := a.height - 2 // header + status bar
	if a.showHistory {
		h -= historyHeight
		a.history.list.SetSize(a.width, historyHeight-1)
	}
	if a.mode != modeNone {
		h--
	}
	if a.err != nil {
		h--
	}
	a.list.SetSize(a.width, max(h, 1))
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		info := debugInfo{
			ring:    a.opts.Ring,
			metrics: a.opts.Metrics.Summary(),
			widget:  a.list.Stats(),
			stage:   a.batcher.Stage(),
			gen:     a.batcher.Generation().String(),
			now:     a.now(),
		}
		if overlay := debugOverlay(info, a.width, a.height-1); overlay != "" {
			return overlay + "\n" + debugStatusBar(a.width)
		}
	}

	parts := []string{a.header()}
	if a.showHelp {
		parts = append(parts, HelpStyle.Render(a.help.View(a.keys)))
	} else {
		parts = append(parts, a.list.View())
	}
	if a.showHistory {
		parts = append(parts, PaneTitle.Render("History"), a.history.list.View())
	}
	if a.mode != modeNone {
		prompt := "Add: "
		if a.mode == modeRename {
			prompt = "Rename: "
		}
		parts = append(parts, InputBar.Width(a.width).Render(InputBarPrompt.Render(prompt)+a.input.View()))
	}
	if a.err != nil {
		parts = append(parts, ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)"))
	}
	parts = append(parts, a.statusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) header() string {
	s := a.board.Stats.Get()
	stats := HeaderStats.Render(fmt.Sprintf("%d open, %d urgent, filter %s", s.Open, s.HighPriority, a.board.Filter()))
	return HeaderStyle.Render("Tasks") + stats + "  " + DoneCount.Render(fmt.Sprintf("%d done", s.Done))
}

// statusBar renders the bottom bar: position or status on the left, key
// hints on the right.
func (a App) statusBar() string {
	var left string
	switch {
	case a.loading:
		left = " Loading... "
	case a.status != "":
		left = " " + a.status + " "
	default:
		pos := 0
		if p := a.list.Cursor(); p != nil {
			pos = p.Item() + 1
		}
		left = fmt.Sprintf(" %d/%d ", pos, a.list.Len())
	}

	short := help.New()
	short.Styles.ShortKey = StatusBarKey
	short.Styles.ShortDesc = StatusBarText
	hints := short.ShortHelpView(a.keys.ShortHelp())

	padding := max(a.width-lipgloss.Width(left)-lipgloss.Width(hints)-2, 0)
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", padding) + hints)
}

// Board returns the task board (for testing).
func (a App) Board() *Board {
	return a.board
}

// Rows returns the rows the list widget currently shows (for testing).
func (a App) Rows() []string {
	return a.list.Rows()
}

// Err returns the error shown in the error bar (for testing).
func (a App) Err() error {
	return a.err
}

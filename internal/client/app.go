package client

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fenggwsx/StartupMatch/internal/batch"
	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/config"
	"github.com/fenggwsx/StartupMatch/internal/domain"
	"github.com/fenggwsx/StartupMatch/internal/equal"
	"github.com/fenggwsx/StartupMatch/internal/memo"
	"github.com/fenggwsx/StartupMatch/internal/schedule"
	"github.com/fenggwsx/StartupMatch/internal/store"
)

// StateReporter exposes the health of a storage backend, typically a
// circuit breaker state.
type StateReporter interface {
	State() string
}

// Options wires an App to the store it drives.
type Options struct {
	Config config.Config
	Store  *store.Store
	Logger *zap.Logger
	Clock  clock.Clock
	// Storage is shown on the debug view when set.
	Storage StateReporter
}

// App implements the bubbletea tea.Model interface for the terminal client.
// Every change it makes goes through the store; what it renders is read back
// from the store after the change is committed.
type App struct {
	cfg     config.Config
	store   *store.Store
	logger  *zap.Logger
	clock   clock.Clock
	storage StateReporter
	secret  []byte

	state store.State

	input      textinput.Model
	viewport   viewport.Model
	helper     help.Model
	showHelp   bool
	helpView   string
	helpHeight int
	styles     styleSet
	commands   []commandSpec
	view       primaryView
	logLine    logEntry
	width      int
	height     int

	search *schedule.Value[string]
	resize *schedule.Throttle[windowSize]
	skills *batch.Batcher[[]string]
	views  *memo.Keyed[string, []domain.Project]
	ranked *memo.Memo[[]domain.Match]
	home   *memo.Lazy[string]

	// Commit targets behind the search and skills callbacks.
	onSearch *memo.Handle[string, error]
	onSkills *memo.Handle[[]string, error]

	events      chan tea.Msg
	dirty       chan struct{}
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

type primaryView int

const (
	viewHome primaryView = iota
	viewProjects
	viewNotifications
	viewMatches
	viewDebug
	viewHelp
)

func (v primaryView) String() string {
	switch v {
	case viewHome:
		return "home"
	case viewProjects:
		return "projects"
	case viewNotifications:
		return "notifications"
	case viewMatches:
		return "matches"
	case viewDebug:
		return "debug"
	case viewHelp:
		return "help"
	default:
		return "unknown"
	}
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelError
)

type logEntry struct {
	level logLevel
	label string
	body  string
}

type windowSize struct {
	width  int
	height int
}

type storeChangedMsg struct{}

type resizedMsg windowSize

type skillsCommittedMsg struct {
	skills []string
	err    error
}

type searchCommittedMsg struct {
	query string
	err   error
}

const eventBuffer = 64

// NewApp returns a Bubble Tea model bound to opts.Store.
func NewApp(opts Options) *App {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := clock.OrReal(opts.Clock)

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type " + cfg.CommandPrefix + "help for commands"
	input.Focus()

	a := &App{
		cfg:      cfg,
		store:    opts.Store,
		logger:   logger.Named("client"),
		clock:    c,
		storage:  opts.Storage,
		secret:   []byte(uuid.NewString()),
		state:    opts.Store.State(),
		input:    input,
		viewport: viewport.New(0, 0),
		helper:   help.New(),
		commands: defaultCommands(cfg.CommandPrefix),
		view:     viewHome,
		logLine:  logEntry{label: "INFO", body: "Welcome to StartupMatch"},
		events:   make(chan tea.Msg, eventBuffer),
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	a.styles = buildStyles(a.state.UI.Theme)
	a.onSearch = memo.NewHandle(opts.Store.SetSearchQuery, []any{opts.Store})
	a.onSkills = memo.NewHandle(opts.Store.SetSelectedSkills, []any{opts.Store})

	a.search = schedule.NewValue(a.state.Search.Query, cfg.Timing.SearchDebounce, schedule.Options{
		MaxWait: cfg.Timing.SearchMaxWait,
		Clock:   c,
	})
	a.search.OnChange(a.commitSearch)

	a.resize = schedule.NewThrottle(windowSize{}, cfg.Timing.ThrottleLimit, schedule.Options{Clock: c})
	a.resize.OnChange(func(size windowSize) { a.post(resizedMsg(size)) })

	a.skills = batch.New(slices.Clone(a.state.UI.SelectedSkills), batch.Options{
		Window: cfg.Timing.BatchWindow,
		Clock:  c,
	})
	a.skills.OnFlush(a.commitSkills)

	a.views = memo.NewKeyed[string, []domain.Project](cfg.ViewCache.TTL, uint64(cfg.ViewCache.Capacity))
	a.ranked = memo.New(func() []domain.Match { return rankMatches(a.state.Matches) }, memo.WithEqual(equal.Shallow))
	a.home = memo.NewLazy(func() string { return buildHomeContent(cfg.CommandPrefix) })

	a.unsubscribe = opts.Store.Subscribe(func(_, _ store.State) { a.markDirty() })
	a.updateViewportContent()
	return a
}

// Init is part of the tea.Model interface.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.listen())
}

// Update handles user input and internal events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		size := windowSize{width: m.Width, height: m.Height}
		if a.width == 0 {
			a.applySize(size)
		}
		a.resize.Set(size)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case storeChangedMsg:
		a.syncState()
		return a, a.listen()
	case resizedMsg:
		a.applySize(windowSize(m))
		return a, a.listen()
	case skillsCommittedMsg:
		if m.err != nil {
			a.logErrorf("Saving skills failed: %v", m.err)
		} else if len(m.skills) == 0 {
			a.logf("Skill filter cleared")
		} else {
			a.logf("Skill filter: %s", strings.Join(m.skills, ", "))
		}
		return a, a.listen()
	case searchCommittedMsg:
		if m.err != nil {
			a.logErrorf("Search failed: %v", m.err)
		}
		return a, a.listen()
	}

	var inputCmd, viewportCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	a.viewport, viewportCmd = a.viewport.Update(msg)
	return a, tea.Batch(inputCmd, viewportCmd)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, a.quit()
	case tea.KeyTab:
		a.handleTabCompletion()
		a.updateHelp()
		return a, nil
	case tea.KeyEnter:
		return a, a.handleSubmit(strings.TrimSpace(a.input.Value()))
	case tea.KeyEsc:
		a.input.Reset()
		a.feedSearch()
		a.updateHelp()
		return a, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.updateHelp()
	a.feedSearch()
	return a, cmd
}

func (a *App) isCommand(value string) bool {
	return strings.HasPrefix(value, a.cfg.CommandPrefix)
}

// feedSearch passes the input to the debounced search while the project
// list is showing. Commands never reach it.
func (a *App) feedSearch() {
	if a.view != viewProjects {
		return
	}
	value := a.input.Value()
	if a.isCommand(value) {
		return
	}
	a.search.Set(strings.TrimSpace(value))
}

// commitSearch runs on the scheduler once the query has settled.
func (a *App) commitSearch(query string) {
	err := a.onSearch.Call(query)
	if err != nil {
		a.logger.Warn("search query rejected", zap.String("query", query), zap.Error(err))
	} else {
		a.logger.Debug("search committed", zap.String("query", query))
	}
	a.post(searchCommittedMsg{query: query, err: err})
}

// commitSkills runs once per batch window with every toggle of the window
// applied.
func (a *App) commitSkills(skills []string) {
	err := a.onSkills.Call(skills)
	a.store.Metrics().BatchFlushes.Inc()
	if err != nil {
		a.logger.Warn("skill selection rejected", zap.Strings("skills", skills), zap.Error(err))
	}
	a.post(skillsCommittedMsg{skills: skills, err: err})
}

func (a *App) toggleSkill(skill string) {
	a.skills.Update(func(current []string) []string {
		return domain.ToggleSkill(current, skill)
	})
}

// syncState pulls the committed state and refreshes everything derived
// from it.
func (a *App) syncState() {
	next := a.store.State()
	if !equal.Ref(a.state.Projects, next.Projects) {
		a.views.Invalidate()
	}
	if a.state.UI.Theme != next.UI.Theme {
		a.styles = buildStyles(next.UI.Theme)
	}
	relayout := a.state.UI.SidebarOpen != next.UI.SidebarOpen
	a.state = next
	if relayout {
		a.updateViewportSize()
	}
	a.updateViewportContent()
}

func (a *App) visibleProjects() []domain.Project {
	f := a.activeFilter()
	projects := a.state.Projects
	return a.views.GetOrCompute(filterKey(f), func() []domain.Project {
		return domain.FilterProjects(projects, f)
	})
}

func (a *App) activeFilter() domain.ProjectFilter {
	f := a.state.Search.Filter
	f.Query = a.state.Search.Query
	f.Skills = a.state.UI.SelectedSkills
	return f
}

func filterKey(f domain.ProjectFilter) string {
	skills := make([]string, len(f.Skills))
	for i, s := range f.Skills {
		skills[i] = strings.ToLower(s)
	}
	slices.Sort(skills)
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(f.Query)),
		strings.ToLower(f.Category),
		string(f.Status),
		strings.Join(skills, ","),
	}, "\x1f")
}

func rankMatches(matches []domain.Match) []domain.Match {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, func(x, y domain.Match) int {
		switch {
		case x.Score > y.Score:
			return -1
		case x.Score < y.Score:
			return 1
		default:
			return y.CreatedAt.Compare(x.CreatedAt)
		}
	})
	return out
}

// listen waits for the next event produced off the UI goroutine. Each
// handled event re-arms it, so exactly one listener is outstanding.
func (a *App) listen() tea.Cmd {
	events, dirty, done := a.events, a.dirty, a.done
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-dirty:
			return storeChangedMsg{}
		case <-done:
			return nil
		}
	}
}

func (a *App) post(msg tea.Msg) {
	select {
	case a.events <- msg:
	case <-a.done:
	}
}

// markDirty coalesces store notifications; the handler reads the latest
// state anyway.
func (a *App) markDirty() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

func (a *App) applySize(size windowSize) {
	if size.width <= 0 || size.height <= 0 {
		return
	}
	a.width = size.width
	a.height = size.height
	a.updateInputWidth()
	a.updateViewportSize()
	a.updateHelp()
	a.updateViewportContent()
}

func (a *App) quit() tea.Cmd {
	a.logf("Exiting client")
	return tea.Quit
}

// Close commits pending skill toggles and stops every timer. It must be
// called before the store is torn down.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.skills.Close()
		a.search.Close()
		a.resize.Close()
		a.views.Close()
		a.unsubscribe()
	})
}

func (a *App) logf(format string, args ...any) {
	a.logLine = logEntry{level: logLevelInfo, label: "INFO", body: fmt.Sprintf(format, args...)}
}

func (a *App) logErrorf(format string, args ...any) {
	a.logLine = logEntry{level: logLevelError, label: "ERROR", body: fmt.Sprintf(format, args...)}
	a.logger.Debug("client error", zap.String("message", a.logLine.body))
}

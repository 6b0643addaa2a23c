package client

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/auth"
	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/config"
	"github.com/fenggwsx/StartupMatch/internal/domain"
	"github.com/fenggwsx/StartupMatch/internal/storage/memory"
	"github.com/fenggwsx/StartupMatch/internal/store"
)

func newTestApp(t *testing.T) (*App, *store.Store, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	st, err := store.Create(context.Background(), memory.NewStore(0),
		store.WithClock(fc),
		store.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	a := NewApp(Options{Config: config.Default(), Store: st, Clock: fc})
	t.Cleanup(a.Close)
	return a, st, fc
}

func typeText(a *App, text string) {
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func submit(a *App, line string) {
	a.input.SetValue(line)
	a.input.CursorEnd()
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// drain delivers every event queued off the UI goroutine, the way the
// listen command would.
func drain(a *App) {
	for {
		select {
		case msg := <-a.events:
			a.Update(msg)
		case <-a.dirty:
			a.Update(storeChangedMsg{})
		default:
			return
		}
	}
}

func seedProjects(t *testing.T, st *store.Store, titles ...string) {
	t.Helper()
	for _, title := range titles {
		require.NoError(t, st.AddProject(domain.Project{Title: title}))
	}
}

func TestSearchIsDebouncedIntoStore(t *testing.T) {
	a, st, fc := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	seedProjects(t, st, "Solar mesh", "Solana wallet", "Garden planner")
	submit(a, "/projects")
	require.Equal(t, viewProjects, a.view)

	typeText(a, "sol")
	assert.Equal(t, "sol", a.input.Value())
	assert.Empty(t, st.State().Search.Query)
	assert.True(t, a.search.Pending())

	fc.Advance(299 * time.Millisecond)
	assert.Empty(t, st.State().Search.Query)

	fc.Advance(time.Millisecond)
	assert.Equal(t, "sol", st.State().Search.Query)

	drain(a)
	assert.Len(t, a.visibleProjects(), 2)
	assert.Contains(t, a.viewport.View(), "Projects (2 of 3)")
}

func TestSearchMaxWaitForcesCommit(t *testing.T) {
	a, st, fc := newTestApp(t)
	submit(a, "/projects")

	for _, r := range "solar" {
		typeText(a, string(r))
		fc.Advance(200 * time.Millisecond)
		if st.State().Search.Query != "" {
			break
		}
	}
	assert.Equal(t, "solar", st.State().Search.Query)
	assert.Equal(t, time.Second, fc.Now().Sub(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestCommitHandlesFollowTheirImplementation(t *testing.T) {
	a, st, fc := newTestApp(t)
	submit(a, "/projects")

	assert.False(t, a.onSearch.Update(st.SetSearchQuery, st), "same store keeps the bound action")

	var seen []string
	require.True(t, a.onSearch.Update(func(query string) error {
		seen = append(seen, query)
		return nil
	}, "recorder"))

	typeText(a, "mesh")
	fc.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"mesh"}, seen, "the registered scheduler callback reaches the new implementation")
	assert.Empty(t, st.State().Search.Query)

	require.True(t, a.onSearch.Update(st.SetSearchQuery, st))
	typeText(a, "!")
	fc.Advance(300 * time.Millisecond)
	assert.Equal(t, "mesh!", st.State().Search.Query)
	assert.Len(t, seen, 1)
}

func TestEnterCommitsSearchImmediately(t *testing.T) {
	a, st, _ := newTestApp(t)
	seedProjects(t, st, "Garden planner", "Solar mesh")
	submit(a, "/projects")

	typeText(a, "gar")
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "gar", st.State().Search.Query)
	assert.Equal(t, "gar", a.input.Value(), "the search box keeps its text")

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a.search.Flush()
	assert.Empty(t, st.State().Search.Query)
}

func TestSearchIgnoredOutsideProjects(t *testing.T) {
	a, st, fc := newTestApp(t)
	typeText(a, "hello")
	fc.Advance(time.Second)
	assert.Empty(t, st.State().Search.Query)

	submit(a, "hello")
	assert.Equal(t, logLevelError, a.logLine.level)
	assert.Contains(t, a.logLine.body, "Commands start with /")
}

func TestSkillTogglesAreBatched(t *testing.T) {
	a, st, fc := newTestApp(t)

	submit(a, "/skill Go")
	submit(a, "/skill rust")
	submit(a, "/skill go")
	assert.Empty(t, st.State().UI.SelectedSkills)
	assert.Equal(t, 3, a.skills.Queued())

	fc.Advance(16 * time.Millisecond)
	assert.Equal(t, []string{"rust"}, st.State().UI.SelectedSkills)
	assert.Equal(t, 1.0, testutil.ToFloat64(st.Metrics().BatchFlushes))
	assert.Equal(t, 1.0, testutil.ToFloat64(st.Metrics().Actions.WithLabelValues("set_selected_skills")))

	drain(a)
	assert.Equal(t, "Skill filter: rust", a.logLine.body)
	assert.Equal(t, []string{"rust"}, a.activeFilter().Skills)

	submit(a, "/skill clear")
	fc.Advance(16 * time.Millisecond)
	assert.Empty(t, st.State().UI.SelectedSkills)
}

func TestCloseCommitsPendingSkills(t *testing.T) {
	a, st, _ := newTestApp(t)
	submit(a, "/skill design")
	a.Close()
	assert.Equal(t, []string{"design"}, st.State().UI.SelectedSkills)
}

func TestResizeIsThrottled(t *testing.T) {
	a, _, fc := newTestApp(t)

	a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 80, a.width, "the first size applies at once")

	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 80, a.width)

	fc.Advance(100 * time.Millisecond)
	drain(a)
	assert.Equal(t, 120, a.width)
	assert.Equal(t, 40, a.height)
	assert.Equal(t, 120, a.viewport.Width)
	assert.Equal(t, 37, a.viewport.Height)
}

func TestProjectCommands(t *testing.T) {
	a, st, _ := newTestApp(t)

	submit(a, "/project add Solar mesh #energy")
	projects := st.State().Projects
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "Solar mesh", p.Title)
	assert.Equal(t, "energy", p.Category)
	assert.Equal(t, domain.ProjectDraft, p.Status)

	submit(a, "/project status "+shortID(p.ID)+" active")
	assert.Equal(t, domain.ProjectActive, st.State().Projects[0].Status)

	submit(a, "/project status "+shortID(p.ID)+" bogus")
	assert.Equal(t, logLevelError, a.logLine.level)
	assert.Equal(t, domain.ProjectActive, st.State().Projects[0].Status)

	submit(a, "/project rm nope")
	assert.Contains(t, a.logLine.body, "no match")

	submit(a, "/project rm "+shortID(p.ID))
	assert.Empty(t, st.State().Projects)
}

func TestFilterAndPageCommands(t *testing.T) {
	a, st, _ := newTestApp(t)
	require.NoError(t, st.AddProject(domain.Project{Title: "Solar mesh", Category: "energy", Status: domain.ProjectActive}))
	require.NoError(t, st.AddProject(domain.Project{Title: "Garden planner", Category: "food"}))

	submit(a, "/filter category energy")
	assert.Equal(t, "energy", st.State().Search.Filter.Category)
	assert.Len(t, a.visibleProjects(), 1)

	submit(a, "/filter status shipped")
	assert.Equal(t, logLevelError, a.logLine.level)

	submit(a, "/filter status active")
	assert.Equal(t, domain.ProjectActive, st.State().Search.Filter.Status)

	submit(a, "/page 2")
	assert.Equal(t, 2, st.State().Pagination.Page)
	assert.False(t, st.State().Pagination.HasMore)

	submit(a, "/page 0")
	assert.Equal(t, logLevelError, a.logLine.level)

	submit(a, "/filter clear")
	assert.Equal(t, store.Search{}, st.State().Search)
	assert.Len(t, a.visibleProjects(), 2)
}

func TestNotificationCommands(t *testing.T) {
	a, st, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.NoError(t, st.AddNotification(domain.Notification{Title: "First"}))
	require.NoError(t, st.AddNotification(domain.Notification{Title: "Second"}))

	assert.Empty(t, a.state.Notifications, "nothing has been drained yet")
	first := st.State().Notifications[1]
	submit(a, "/read "+shortID(first.ID))
	assert.True(t, st.State().Notifications[1].Read)
	assert.Equal(t, 1, store.SelectUnreadCount(st.State()))

	submit(a, "/notify hello there")
	assert.Equal(t, "hello there", st.State().Notifications[0].Title)
	assert.Equal(t, 2, store.SelectUnreadCount(st.State()))

	submit(a, "/read all")
	assert.Zero(t, store.SelectUnreadCount(st.State()))

	submit(a, "/notifications")
	assert.Contains(t, a.viewport.View(), "Notifications (0 unread)")
}

func TestLoginAndLogout(t *testing.T) {
	a, st, fc := newTestApp(t)

	submit(a, "/login alice")
	state := st.State()
	require.True(t, state.Authenticated)
	assert.Equal(t, "alice", state.User.Name)
	assert.True(t, auth.SessionValid(state.Token, fc.Now()))
	assert.Contains(t, a.statusLine(), "alice")

	require.NoError(t, st.AddNotification(domain.Notification{Title: "Private"}))
	submit(a, "/logout")
	assert.False(t, st.State().Authenticated)
	assert.Empty(t, st.State().Notifications)

	submit(a, "/logout")
	assert.Equal(t, "Not signed in", a.logLine.body)
}

func TestLoginWithToken(t *testing.T) {
	a, st, fc := newTestApp(t)

	expired, err := auth.NewToken([]byte("k"), "u-bob", "bob", time.Hour, fc.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	submit(a, "/login bob "+expired)
	assert.False(t, st.State().Authenticated)
	assert.Contains(t, a.logLine.body, "expired")

	valid, err := auth.NewToken([]byte("k"), "u-bob", "bob", time.Hour, fc.Now())
	require.NoError(t, err)
	submit(a, "/login bob "+valid)
	require.True(t, st.State().Authenticated)
	assert.Equal(t, "u-bob", st.State().User.ID)

	submit(a, "/login carol not-a-token")
	assert.Equal(t, logLevelError, a.logLine.level)
	assert.Equal(t, "u-bob", st.State().User.ID)
}

func TestThemeAndSidebar(t *testing.T) {
	a, st, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	submit(a, "/theme dark")
	assert.Equal(t, store.ThemeDark, st.State().UI.Theme)

	submit(a, "/theme neon")
	assert.Equal(t, logLevelError, a.logLine.level)
	assert.Equal(t, store.ThemeDark, st.State().UI.Theme)

	submit(a, "/sidebar")
	assert.True(t, st.State().UI.SidebarOpen)
	assert.Equal(t, 100-sidebarWidth, a.viewport.Width)
	assert.Contains(t, a.View(), "Summary")

	submit(a, "/sidebar")
	assert.Equal(t, 100, a.viewport.Width)
}

func TestStoreChangesReachTheView(t *testing.T) {
	a, st, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	submit(a, "/notifications")

	require.NoError(t, st.AddNotification(domain.Notification{Title: "From elsewhere"}))
	assert.Empty(t, a.state.Notifications, "the model only changes on the UI goroutine")

	msg := a.listen()()
	require.IsType(t, storeChangedMsg{}, msg)
	_, cmd := a.Update(msg)
	assert.NotNil(t, cmd, "the listener is re-armed")
	assert.Len(t, a.state.Notifications, 1)
	assert.Contains(t, a.viewport.View(), "From elsewhere")
}

func TestListenStopsAfterClose(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.Close()
	assert.Nil(t, a.listen()())
}

func TestMatchesAreRankedOnce(t *testing.T) {
	a, st, _ := newTestApp(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.SetMatches([]domain.Match{
		{ID: "m1", UserID: "me", MatchedUserID: "ana", Score: 40, CreatedAt: now},
		{ID: "m2", UserID: "me", MatchedUserID: "ben", Score: 90, CreatedAt: now},
		{ID: "m3", UserID: "me", MatchedUserID: "cy", Score: 40, CreatedAt: now.Add(time.Hour)},
	}))
	submit(a, "/matches")

	ranked := a.ranked.Get(a.state.Matches)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"m2", "m3", "m1"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})

	computes := a.ranked.Computes()
	a.updateViewportContent()
	assert.Equal(t, computes, a.ranked.Computes())

	require.NoError(t, st.RemoveMatch("m2"))
	drain(a)
	assert.Equal(t, computes+1, a.ranked.Computes())
}

func TestProjectViewCache(t *testing.T) {
	a, st, _ := newTestApp(t)
	seedProjects(t, st, "Solar mesh")
	submit(a, "/projects")

	a.visibleProjects()
	before := a.views.Stats()
	a.visibleProjects()
	assert.Equal(t, before.Hits+1, a.views.Stats().Hits)

	submit(a, "/project add Wind farm")
	assert.Len(t, a.visibleProjects(), 2, "the cache is dropped when projects change")
}

func TestUnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	submit(a, "/bogus")
	assert.Equal(t, logLevelError, a.logLine.level)
	assert.Equal(t, "Command /bogus not implemented", a.logLine.body)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFilterKeyNormalizes(t *testing.T) {
	a := filterKey(domain.ProjectFilter{Query: " Sol", Skills: []string{"Go", "rust"}})
	b := filterKey(domain.ProjectFilter{Query: "sol", Skills: []string{"rust", "go"}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, filterKey(domain.ProjectFilter{Query: "sol"}))
}

func TestResolve(t *testing.T) {
	items := []domain.Project{{ID: "abc1"}, {ID: "abc2"}, {ID: "def"}}

	p, err := resolve(items, "abc1")
	require.NoError(t, err)
	assert.Equal(t, "abc1", p.ID)

	p, err = resolve(items, "d")
	require.NoError(t, err)
	assert.Equal(t, "def", p.ID)

	_, err = resolve(items, "abc")
	assert.ErrorIs(t, err, errAmbiguous)
	_, err = resolve(items, "zzz")
	assert.ErrorIs(t, err, errNoMatch)
}

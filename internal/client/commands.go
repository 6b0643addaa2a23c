package client

import (
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenggwsx/StartupMatch/internal/auth"
	"github.com/fenggwsx/StartupMatch/internal/domain"
	"github.com/fenggwsx/StartupMatch/internal/store"
)

const (
	sessionTTL = 24 * time.Hour
	pageSize   = 20
	shortIDLen = 8
)

var (
	errNoMatch   = errors.New("no match")
	errAmbiguous = errors.New("ambiguous id")
)

type commandSpec struct {
	trigger     string
	usage       string
	description string
	// args are completed as the first argument.
	args []string
}

func (a *App) handleSubmit(value string) tea.Cmd {
	if value == "" {
		return nil
	}
	if a.isCommand(value) {
		a.input.Reset()
		a.updateHelp()
		return a.executeCommand(value)
	}
	if a.view == viewProjects {
		a.search.Flush()
		return nil
	}
	a.logErrorf("Commands start with %s; try %shelp", a.cfg.CommandPrefix, a.cfg.CommandPrefix)
	return nil
}

func (a *App) executeCommand(raw string) tea.Cmd {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	cmd := strings.ToLower(strings.TrimPrefix(fields[0], a.cfg.CommandPrefix))
	args := fields[1:]
	var cmds []tea.Cmd

	// Ids and filters resolve against the committed state, not the last render.
	a.syncState()

	switch cmd {
	case "home":
		a.setView(viewHome)
	case "projects":
		a.setView(viewProjects)
	case "notifications":
		a.setView(viewNotifications)
	case "matches":
		a.setView(viewMatches)
	case "debug":
		a.setView(viewDebug)
	case "help":
		a.setView(viewHelp)
	case "project":
		a.commandProject(args)
	case "filter":
		a.commandFilter(args)
	case "page":
		a.commandPage(args)
	case "skill":
		if len(args) == 0 {
			a.logErrorf("Usage: %sskill <tag>|clear", a.cfg.CommandPrefix)
			break
		}
		if len(args) == 1 && strings.EqualFold(args[0], "clear") {
			a.skills.Set([]string{})
			break
		}
		skill := strings.Join(args, " ")
		a.toggleSkill(skill)
		a.logf("Toggled %s", skill)
	case "read":
		a.commandRead(args)
	case "notify":
		if len(args) == 0 {
			a.logErrorf("Usage: %snotify <text>", a.cfg.CommandPrefix)
			break
		}
		a.report(a.store.AddNotification(domain.Notification{
			ID:    domain.NewID(),
			Type:  domain.NotificationSystem,
			Title: strings.Join(args, " "),
		}), "Notification added")
	case "theme":
		if len(args) != 1 {
			a.logErrorf("Usage: %stheme <light|dark>", a.cfg.CommandPrefix)
			break
		}
		a.report(a.store.SetTheme(strings.ToLower(args[0])), "Theme set to "+strings.ToLower(args[0]))
	case "sidebar":
		a.report(a.store.ToggleSidebar(), "Sidebar toggled")
	case "login":
		if len(args) == 0 || len(args) > 2 {
			a.logErrorf("Usage: %slogin <name> [token]", a.cfg.CommandPrefix)
			break
		}
		token := ""
		if len(args) == 2 {
			token = args[1]
		}
		a.login(args[0], token)
	case "logout":
		if !a.state.Authenticated {
			a.logErrorf("Not signed in")
			break
		}
		a.report(a.store.Logout(), "Signed out")
	case "quit", "exit":
		cmds = append(cmds, a.quit())
	default:
		a.logErrorf("Command %s not implemented", fields[0])
	}

	a.syncState()

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (a *App) commandProject(args []string) {
	usage := func() {
		a.logErrorf("Usage: %sproject add <title> [#category] | status <id> <status> | rm <id>", a.cfg.CommandPrefix)
	}
	if len(args) == 0 {
		usage()
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		words := args[1:]
		var category string
		if n := len(words); n > 1 && strings.HasPrefix(words[n-1], "#") {
			category = strings.TrimPrefix(words[n-1], "#")
			words = words[:n-1]
		}
		if len(words) == 0 {
			usage()
			return
		}
		p := domain.Project{
			ID:       domain.NewID(),
			Title:    strings.Join(words, " "),
			Category: category,
		}
		if a.state.User != nil {
			p.OwnerID = a.state.User.ID
		}
		a.report(a.store.AddProject(p), "Added project "+shortID(p.ID))
	case "status":
		if len(args) != 3 {
			usage()
			return
		}
		p, err := resolve(a.state.Projects, args[1])
		if err != nil {
			a.logErrorf("Project %s: %v", args[1], err)
			return
		}
		status := domain.ProjectStatus(strings.ToLower(args[2]))
		a.report(a.store.UpdateProject(p.ID, domain.ProjectPatch{Status: &status}),
			"Project "+shortID(p.ID)+" is now "+string(status))
	case "rm":
		if len(args) != 2 {
			usage()
			return
		}
		p, err := resolve(a.state.Projects, args[1])
		if err != nil {
			a.logErrorf("Project %s: %v", args[1], err)
			return
		}
		a.report(a.store.DeleteProject(p.ID), "Removed project "+shortID(p.ID))
	default:
		usage()
	}
}

func (a *App) commandFilter(args []string) {
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		a.input.Reset()
		a.search.Set("")
		a.search.Flush()
		a.report(a.store.ResetSearch(), "Filters cleared")
		return
	}
	if len(args) < 1 || len(args) > 2 {
		a.logErrorf("Usage: %sfilter category|status [value] | clear", a.cfg.CommandPrefix)
		return
	}

	value := ""
	if len(args) == 2 {
		value = args[1]
	}
	f := a.state.Search.Filter
	switch strings.ToLower(args[0]) {
	case "category":
		f.Category = value
	case "status":
		status := domain.ProjectStatus(strings.ToLower(value))
		if status != "" && !status.Valid() {
			a.logErrorf("Unknown status %s", value)
			return
		}
		f.Status = status
	default:
		a.logErrorf("Unknown filter %s", args[0])
		return
	}
	a.report(a.store.SetProjectFilter(f), "Filter updated")
}

func (a *App) commandPage(args []string) {
	if len(args) != 1 {
		a.logErrorf("Usage: %spage <n>", a.cfg.CommandPrefix)
		return
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		a.logErrorf("Page must be a number")
		return
	}
	if err := a.store.SetPage(page); err != nil {
		a.logErrorf("%v", err)
		return
	}
	more := page*pageSize < len(a.visibleProjects())
	a.report(a.store.SetHasMore(more), "Page "+strconv.Itoa(page))
}

func (a *App) commandRead(args []string) {
	if len(args) != 1 {
		a.logErrorf("Usage: %sread <id>|all", a.cfg.CommandPrefix)
		return
	}
	if strings.EqualFold(args[0], "all") {
		a.report(a.store.MarkAllNotificationsRead(), "All notifications read")
		return
	}
	n, err := resolve(a.state.Notifications, args[0])
	if err != nil {
		a.logErrorf("Notification %s: %v", args[0], err)
		return
	}
	a.report(a.store.MarkNotificationRead(n.ID), "Marked "+shortID(n.ID)+" read")
}

// login signs in name. Without a token an offline session token is minted so
// the session still expires.
func (a *App) login(name, token string) {
	user := domain.User{ID: domain.NewID(), Name: name, Skills: []string{}}
	if token == "" {
		minted, err := auth.NewToken(a.secret, user.ID, name, sessionTTL, a.clock.Now())
		if err != nil {
			a.logErrorf("Login failed: %v", err)
			return
		}
		token = minted
	} else {
		claims, err := auth.Inspect(token)
		if err != nil {
			a.logErrorf("Login failed: %v", err)
			return
		}
		if claims.UserID != "" {
			user.ID = claims.UserID
		}
		user.Email = claims.Email
	}

	err := a.store.Login(user, token)
	if errors.Is(err, store.ErrSessionExpired) {
		a.logErrorf("Token expired; sign in again")
		return
	}
	a.report(err, "Signed in as "+name)
}

func (a *App) report(err error, success string) {
	if err != nil {
		a.logErrorf("%v", err)
		return
	}
	a.logf("%s", success)
}

func (a *App) setView(view primaryView) {
	a.view = view
	a.logf("Switched to %s view", strings.ToUpper(view.String()))
	a.viewport.GotoTop()
}

// resolve finds the entity whose id equals ref or starts with it.
func resolve[T interface{ EntityID() string }](items []T, ref string) (T, error) {
	var zero T
	var found []T
	for _, item := range items {
		id := item.EntityID()
		if id == ref {
			return item, nil
		}
		if strings.HasPrefix(id, ref) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		return zero, errNoMatch
	case 1:
		return found[0], nil
	default:
		return zero, errAmbiguous
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func defaultCommands(prefix string) []commandSpec {
	specs := []commandSpec{
		{trigger: "home", usage: "home", description: "Show the welcome screen"},
		{trigger: "projects", usage: "projects", description: "Browse projects; type to search"},
		{trigger: "notifications", usage: "notifications", description: "Show notifications"},
		{trigger: "matches", usage: "matches", description: "Show suggested matches"},
		{trigger: "debug", usage: "debug", description: "Inspect store and scheduler state"},
		{trigger: "help", usage: "help", description: "Show command help"},
		{trigger: "project", usage: "project add|status|rm ...", description: "Create, update or remove a project", args: []string{"add", "status", "rm"}},
		{trigger: "filter", usage: "filter category|status [v] | clear", description: "Filter the project list", args: []string{"category", "status", "clear"}},
		{trigger: "page", usage: "page <n>", description: "Jump to a page of projects"},
		{trigger: "skill", usage: "skill <tag>|clear", description: "Toggle a skill in the filter", args: []string{"clear"}},
		{trigger: "read", usage: "read <id>|all", description: "Mark notifications read", args: []string{"all"}},
		{trigger: "notify", usage: "notify <text>", description: "Add a local notification"},
		{trigger: "theme", usage: "theme <light|dark>", description: "Switch colour theme", args: []string{"light", "dark"}},
		{trigger: "sidebar", usage: "sidebar", description: "Toggle the summary sidebar"},
		{trigger: "login", usage: "login <name> [token]", description: "Sign in"},
		{trigger: "logout", usage: "logout", description: "Sign out and clear private data"},
		{trigger: "quit", usage: "quit", description: "Exit the client"},
	}
	for i := range specs {
		specs[i].trigger = prefix + specs[i].trigger
		specs[i].usage = prefix + specs[i].usage
	}
	return specs
}

package client

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"github.com/fenggwsx/StartupMatch/internal/store"
)

const sidebarWidth = 28

type styleSet struct {
	title         lipgloss.Style
	view          lipgloss.Style
	statusOnline  lipgloss.Style
	statusOffline lipgloss.Style
	label         lipgloss.Style
	value         lipgloss.Style
	muted         lipgloss.Style
	unread        lipgloss.Style
	logLabel      lipgloss.Style
	logBody       lipgloss.Style
	logLabelError lipgloss.Style
	logBodyError  lipgloss.Style
	help          lipgloss.Style
	sidebar       lipgloss.Style
}

func (a *App) View() string {
	var b strings.Builder

	main := a.viewport.View()
	if a.state.UI.SidebarOpen {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, a.styles.sidebar.Render(a.sidebarContent()))
	}
	b.WriteString(main)
	b.WriteString("\n")

	if a.showHelp && a.helpView != "" {
		b.WriteString(a.styles.help.Render(a.helpView))
		b.WriteString("\n")
	}

	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.logLineView())
	b.WriteString("\n")
	b.WriteString(a.statusLine())

	return b.String()
}

func (a *App) contentWidth() int {
	width := a.viewport.Width
	if width <= 0 {
		width = a.width
	}
	return width
}

func (a *App) updateViewportContent() {
	var lines []string
	switch a.view {
	case viewHome:
		home, _ := a.home.Get(true)
		a.viewport.SetContent(home)
		return
	case viewProjects:
		lines = a.renderProjects()
	case viewNotifications:
		lines = a.renderNotifications()
	case viewMatches:
		lines = a.renderMatches()
	case viewDebug:
		lines = a.renderDebug()
	case viewHelp:
		lines = a.renderHelp()
	}
	a.viewport.SetContent(strings.Join(wrapLines(lines, a.contentWidth()), "\n"))
}

func (a *App) updateViewportSize() {
	if a.height == 0 {
		return
	}
	const fixed = 3
	height := a.height - fixed - a.helpHeight
	if height < 3 {
		height = 3
	}
	width := a.width
	if a.state.UI.SidebarOpen && width > 2*sidebarWidth {
		width -= sidebarWidth
	}
	a.viewport.Height = height
	a.viewport.Width = width
}

func (a *App) updateInputWidth() {
	width := a.width
	if width <= 0 {
		width = 60
	}
	promptWidth := lipgloss.Width(a.input.Prompt)
	usable := width - promptWidth - 1
	if usable < 10 {
		usable = 10
	}
	a.input.Width = usable
}

func (a *App) updateHelp() {
	value := a.input.Value()
	if value == "" || !a.isCommand(value) {
		a.setHelp("")
		return
	}

	token := value
	if idx := strings.IndexAny(value, " \t"); idx >= 0 {
		token = value[:idx]
	}

	bindings := a.matchingBindings(token)
	if len(bindings) == 0 {
		a.setHelp("")
		return
	}

	a.helper.Width = a.width
	a.setHelp(strings.TrimRight(a.helper.View(dynamicKeyMap{keys: bindings}), "\n"))
}

func (a *App) setHelp(view string) {
	height := countLines(view)
	a.showHelp = view != ""
	a.helpView = view
	if height != a.helpHeight {
		a.helpHeight = height
		a.updateViewportSize()
	}
}

func (a *App) matchingBindings(prefix string) []key.Binding {
	prefix = strings.ToLower(prefix)
	var bindings []key.Binding
	for _, c := range a.commands {
		if strings.HasPrefix(c.trigger, prefix) {
			bindings = append(bindings, key.NewBinding(
				key.WithKeys(c.trigger),
				key.WithHelp(c.usage, c.description),
			))
		}
	}
	return bindings
}

func (a *App) renderProjects() []string {
	visible := a.visibleProjects()
	f := a.activeFilter()

	lines := []string{
		a.styles.title.Render(fmt.Sprintf("Projects (%d of %d)", len(visible), len(a.state.Projects))),
	}
	var filters []string
	if f.Query != "" {
		filters = append(filters, fmt.Sprintf("query %q", f.Query))
	}
	if f.Category != "" {
		filters = append(filters, "category "+f.Category)
	}
	if f.Status != "" {
		filters = append(filters, "status "+string(f.Status))
	}
	if len(f.Skills) > 0 {
		filters = append(filters, "skills "+strings.Join(f.Skills, ", "))
	}
	if len(filters) > 0 {
		lines = append(lines, a.styles.muted.Render("Filtered by "+strings.Join(filters, "; ")))
	}
	if a.search.Pending() {
		lines = append(lines, a.styles.muted.Render("Searching..."))
	}
	lines = append(lines, "")

	if len(visible) == 0 {
		if len(a.state.Projects) == 0 {
			return append(lines, fmt.Sprintf("No projects yet. Use %sproject add <title> to create one.", a.cfg.CommandPrefix))
		}
		return append(lines, "No projects match. Keep typing, or press Esc to clear the search.")
	}

	page := a.state.Pagination.Page
	start := (page - 1) * pageSize
	if start >= len(visible) {
		start = 0
		page = 1
	}
	end := min(start+pageSize, len(visible))
	for _, p := range visible[start:end] {
		header := fmt.Sprintf("[%s] %s", shortID(p.ID), p.Title)
		meta := []string{string(p.Status)}
		if p.Category != "" {
			meta = append([]string{p.Category}, meta...)
		}
		lines = append(lines, a.styles.value.Render(header)+"  "+a.styles.label.Render("("+strings.Join(meta, ", ")+")"))
		if len(p.Skills) > 0 {
			lines = append(lines, "    "+a.styles.muted.Render(strings.Join(p.Skills, " · ")))
		}
	}
	pages := (len(visible) + pageSize - 1) / pageSize
	if pages > 1 {
		lines = append(lines, "", a.styles.muted.Render(fmt.Sprintf("Page %d of %d", page, pages)))
	}
	return lines
}

func (a *App) renderNotifications() []string {
	unread := store.SelectUnreadCount(a.state)
	lines := []string{
		a.styles.title.Render(fmt.Sprintf("Notifications (%d unread)", unread)),
		"",
	}
	if len(a.state.Notifications) == 0 {
		return append(lines, "Nothing here yet.")
	}
	for _, n := range a.state.Notifications {
		marker := "  "
		title := a.styles.muted.Render(n.Title)
		if !n.Read {
			marker = a.styles.unread.Render("* ")
			title = a.styles.value.Render(n.Title)
		}
		line := fmt.Sprintf("%s[%s] %s", marker, shortID(n.ID), title)
		if n.Message != "" {
			line += ": " + n.Message
		}
		if !n.CreatedAt.IsZero() {
			line += "  " + a.styles.label.Render(n.CreatedAt.Local().Format("Jan 2 15:04"))
		}
		lines = append(lines, line)
	}
	return lines
}

func (a *App) renderMatches() []string {
	matches := a.ranked.Get(a.state.Matches)
	lines := []string{a.styles.title.Render(fmt.Sprintf("Matches (%d)", len(matches))), ""}
	if len(matches) == 0 {
		return append(lines, "No suggestions yet.")
	}
	for _, m := range matches {
		line := fmt.Sprintf("%5.1f  %s", m.Score, a.styles.value.Render(m.MatchedUserID))
		if len(m.CommonSkills) > 0 {
			line += "  " + a.styles.label.Render("shares "+strings.Join(m.CommonSkills, ", "))
		}
		lines = append(lines, line)
	}
	return lines
}

func (a *App) renderDebug() []string {
	stats := a.views.Stats()
	storage := "-"
	if a.storage != nil {
		storage = a.storage.State()
	}
	return []string{
		a.styles.title.Render("StartupMatch :: Debug"),
		"",
		fmt.Sprintf("Store phase:       %s", a.store.Phase()),
		fmt.Sprintf("Storage breaker:   %s", storage),
		fmt.Sprintf("Projects:          %d", len(a.state.Projects)),
		fmt.Sprintf("Connections:       %d (%d pending)", len(a.state.Connections), len(store.SelectPendingConnections(a.state))),
		fmt.Sprintf("Notifications:     %d (%d unread)", len(a.state.Notifications), store.SelectUnreadCount(a.state)),
		fmt.Sprintf("Conversations:     %d", len(a.state.Conversations)),
		fmt.Sprintf("Messages:          %d", len(a.state.Messages)),
		fmt.Sprintf("Matches:           %d", len(a.state.Matches)),
		fmt.Sprintf("Search:            %q (pending %t)", a.state.Search.Query, a.search.Pending()),
		fmt.Sprintf("Skill batches:     %d flushed, %d queued", a.skills.Flushes(), a.skills.Queued()),
		fmt.Sprintf("View cache:        %d items, %d hits, %d misses, %d evictions", stats.Items, stats.Hits, stats.Misses, stats.Evictions),
		fmt.Sprintf("Match rankings:    %d computed", a.ranked.Computes()),
		fmt.Sprintf("Window:            %dx%d", a.width, a.height),
	}
}

func (a *App) renderHelp() []string {
	lines := []string{a.styles.title.Render("StartupMatch Commands"), ""}
	for _, c := range a.commands {
		lines = append(lines, fmt.Sprintf("%-36s %s", c.usage, c.description))
	}
	return lines
}

func (a *App) sidebarContent() string {
	lines := []string{a.styles.title.Render("Summary"), ""}
	if u := a.state.User; u != nil {
		lines = append(lines, "User: "+u.Name)
	}
	lines = append(lines,
		fmt.Sprintf("Unread: %d", store.SelectUnreadCount(a.state)),
		fmt.Sprintf("Pending: %d", len(store.SelectPendingConnections(a.state))),
		fmt.Sprintf("Matches: %d", len(a.state.Matches)),
	)
	if skills := a.state.UI.SelectedSkills; len(skills) > 0 {
		lines = append(lines, "", "Skills:")
		for _, s := range skills {
			lines = append(lines, "  "+s)
		}
	}
	return strings.Join(wrapLines(lines, sidebarWidth-2), "\n")
}

func (a *App) statusLine() string {
	status := "GUEST"
	user := "-"
	if a.state.Authenticated {
		status = "SIGNED IN"
		if a.state.User != nil {
			user = a.state.User.Name
		}
	}

	parts := []string{
		a.styles.title.Render("StartupMatch"),
		a.styles.view.Render(strings.ToUpper(a.view.String())),
		a.statusValueStyle(a.state.Authenticated).Render(status),
		a.styles.label.Render("User") + ": " + a.styles.value.Render(user),
		a.styles.label.Render("Unread") + ": " + a.styles.value.Render(fmt.Sprint(store.SelectUnreadCount(a.state))),
		a.styles.label.Render("Store") + ": " + a.styles.value.Render(a.store.Phase().String()),
	}

	return strings.Join(parts, " | ")
}

func (a *App) statusValueStyle(signedIn bool) lipgloss.Style {
	if signedIn {
		return a.styles.statusOnline
	}
	return a.styles.statusOffline
}

func (a *App) logLineView() string {
	labelStyle := a.styles.logLabel
	bodyStyle := a.styles.logBody
	if a.logLine.level == logLevelError {
		labelStyle = a.styles.logLabelError
		bodyStyle = a.styles.logBodyError
	}
	return labelStyle.Render(a.logLine.label) + " " + bodyStyle.Render(a.logLine.body)
}

func buildStyles(theme string) styleSet {
	base := lipgloss.NewStyle()
	fg, muted := lipgloss.Color("0"), lipgloss.Color("8")
	if theme == store.ThemeDark {
		fg, muted = lipgloss.Color("15"), lipgloss.Color("7")
	}
	return styleSet{
		title:         base.Foreground(lipgloss.Color("13")).Bold(true),
		view:          base.Foreground(lipgloss.Color("14")).Bold(true),
		statusOnline:  base.Foreground(lipgloss.Color("10")).Bold(true),
		statusOffline: base.Foreground(lipgloss.Color("9")).Bold(true),
		label:         base.Foreground(muted),
		value:         base.Foreground(fg),
		muted:         base.Foreground(muted).Italic(true),
		unread:        base.Foreground(lipgloss.Color("11")).Bold(true),
		logLabel:      base.Foreground(lipgloss.Color("11")).Bold(true),
		logBody:       base.Foreground(muted),
		logLabelError: base.Foreground(lipgloss.Color("9")).Bold(true),
		logBodyError:  base.Foreground(lipgloss.Color("9")),
		help:          base.Foreground(lipgloss.Color("12")),
		sidebar: base.
			Width(sidebarWidth-2).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(muted),
	}
}

func buildHomeContent(prefix string) string {
	fig := figure.NewColorFigure("STARTUP MATCH", "small", "green", true)
	art := strings.TrimRight(fig.String(), "\n")
	info := []string{
		"Use " + prefix + "login <name> to start a session.",
		"Use " + prefix + "projects to browse and search projects; just start typing.",
		"Use " + prefix + "skill <tag> to narrow projects by skill.",
		"Use " + prefix + "notifications and " + prefix + "read all to catch up.",
		"Use " + prefix + "debug to inspect the store and its schedulers.",
		"Use " + prefix + "help to browse all commands.",
	}

	var b strings.Builder
	b.WriteString(art)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(info, "\n"))
	return b.String()
}

func wrapLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	const minWidth = 10
	if width < minWidth {
		width = minWidth
	}

	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		segment := line
		if segment == "" {
			wrapped = append(wrapped, "")
			continue
		}
		// Styled lines carry escape sequences and are laid out by lipgloss.
		if strings.Contains(segment, "\x1b[") {
			wrapped = append(wrapped, segment)
			continue
		}
		for len(segment) > 0 {
			if runewidth.StringWidth(segment) <= width {
				wrapped = append(wrapped, segment)
				break
			}
			cut := wrapCutIndex(segment, width)
			part := strings.TrimRight(segment[:cut], " ")
			if part == "" && cut > 0 {
				part = segment[:cut]
			}
			wrapped = append(wrapped, part)
			segment = strings.TrimLeft(segment[cut:], " ")
		}
	}
	return wrapped
}

func wrapCutIndex(s string, limit int) int {
	var width int
	lastSpace := -1
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > limit {
			if lastSpace >= 0 {
				return lastSpace + 1
			}
			if width == 0 {
				return i + len(string(r))
			}
			return i
		}
		width += rw
		if unicode.IsSpace(r) {
			lastSpace = i
		}
	}
	return len(s)
}

type dynamicKeyMap struct {
	keys []key.Binding
}

func (d dynamicKeyMap) ShortHelp() []key.Binding {
	return d.keys
}

func (d dynamicKeyMap) FullHelp() [][]key.Binding {
	if len(d.keys) == 0 {
		return [][]key.Binding{}
	}
	return [][]key.Binding{d.keys}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

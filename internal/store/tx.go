package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/auth"
	"github.com/fenggwsx/StartupMatch/internal/domain"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

// ErrSessionExpired is returned by Login for a token that has already
// expired.
var ErrSessionExpired = errors.New("session token expired")

// Tx is a draft of the next state. Its methods mirror the Store actions;
// inside Store.Batch they accumulate into a single commit.
type Tx struct {
	state State
	now   time.Time
	// changed is set by any mutation, dirty only by mutations that reach
	// the durable projection.
	changed bool
	dirty   bool
}

// State returns the draft state including the mutations made so far.
func (tx *Tx) State() State {
	return tx.state
}

func (tx *Tx) touch(persist bool) {
	tx.changed = true
	if persist {
		tx.dirty = true
	}
}

func addTo[T entity](tx *Tx, list *[]T, item T) error {
	if err := domain.Validate(item); err != nil {
		return err
	}
	*list = prepend(*list, item)
	tx.touch(true)
	return nil
}

func updateIn[T entity](tx *Tx, list *[]T, id string, apply func(T) (T, error)) error {
	next, ok, err := patchOne(*list, id, func(item T) (T, error) {
		patched, err := apply(item)
		if err != nil {
			return item, err
		}
		if err := domain.Validate(patched); err != nil {
			return item, err
		}
		return patched, nil
	})
	if err != nil || !ok {
		return err
	}
	*list = next
	tx.touch(true)
	return nil
}

func removeFrom[T entity](tx *Tx, list *[]T, id string) {
	if next, ok := removeID(*list, id); ok {
		*list = next
		tx.touch(true)
	}
}

func setAll[T any](tx *Tx, list *[]T, items []T) {
	*list = replaceAll(items)
	tx.touch(true)
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = *created
	}
}

// Login signs user in. A non-empty token must decode and be unexpired.
func (tx *Tx) Login(user domain.User, token string) error {
	if err := domain.Validate(user); err != nil {
		return err
	}
	if token != "" {
		claims, err := auth.Inspect(token)
		if err != nil {
			return err
		}
		if claims.Expired(tx.now) {
			return ErrSessionExpired
		}
	}
	u := user
	u.Skills = slices.Clone(user.Skills)
	tx.state.User = &u
	tx.state.Token = token
	tx.state.Authenticated = true
	tx.touch(true)
	return nil
}

// Logout drops the session and the user's private collections. Projects
// and interface preferences are kept.
func (tx *Tx) Logout() {
	tx.state.User = nil
	tx.state.Token = ""
	tx.state.Authenticated = false
	tx.state.Connections = []domain.Connection{}
	tx.state.Notifications = []domain.Notification{}
	tx.state.Conversations = []domain.Conversation{}
	tx.state.Messages = []domain.Message{}
	tx.state.Matches = []domain.Match{}
	tx.touch(true)
}

// UpdateUser patches the signed-in user. It is a no-op when nobody is signed
// in.
func (tx *Tx) UpdateUser(patch domain.UserPatch) error {
	if tx.state.User == nil {
		return nil
	}
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = domain.Some(tx.now)
	}
	next, err := patch.Apply(*tx.state.User)
	if err != nil {
		return err
	}
	if err := domain.Validate(next); err != nil {
		return err
	}
	tx.state.User = &next
	tx.touch(true)
	return nil
}

// AddProject puts p at the front of the project list. Missing identifier,
// status and timestamps are filled in.
func (tx *Tx) AddProject(p domain.Project) error {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}
	stamp(&p.CreatedAt, &p.UpdatedAt, tx.now)
	return addTo(tx, &tx.state.Projects, p)
}

// UpdateProject patches the project with id. Unknown ids are ignored.
func (tx *Tx) UpdateProject(id string, patch domain.ProjectPatch) error {
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = domain.Some(tx.now)
	}
	return updateIn(tx, &tx.state.Projects, id, patch.Apply)
}

// DeleteProject removes the project with id.
func (tx *Tx) DeleteProject(id string) {
	removeFrom(tx, &tx.state.Projects, id)
}

// SetProjects replaces the project list.
func (tx *Tx) SetProjects(projects []domain.Project) {
	setAll(tx, &tx.state.Projects, projects)
}

// AddConnection puts c at the front of the connection list. New requests
// start pending.
func (tx *Tx) AddConnection(c domain.Connection) error {
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	if c.Status == "" {
		c.Status = domain.ConnectionPending
	}
	stamp(&c.CreatedAt, &c.UpdatedAt, tx.now)
	return addTo(tx, &tx.state.Connections, c)
}

// UpdateConnection patches the connection with id.
func (tx *Tx) UpdateConnection(id string, patch domain.ConnectionPatch) error {
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = domain.Some(tx.now)
	}
	return updateIn(tx, &tx.state.Connections, id, patch.Apply)
}

// RemoveConnection removes the connection with id.
func (tx *Tx) RemoveConnection(id string) {
	removeFrom(tx, &tx.state.Connections, id)
}

// SetConnections replaces the connection list.
func (tx *Tx) SetConnections(connections []domain.Connection) {
	setAll(tx, &tx.state.Connections, connections)
}

// AddNotification puts n at the front of the notification list.
func (tx *Tx) AddNotification(n domain.Notification) error {
	if n.ID == "" {
		n.ID = domain.NewID()
	}
	if n.Type == "" {
		n.Type = domain.NotificationSystem
	}
	stamp(&n.CreatedAt, nil, tx.now)
	return addTo(tx, &tx.state.Notifications, n)
}

// UpdateNotification patches the notification with id.
func (tx *Tx) UpdateNotification(id string, patch domain.NotificationPatch) error {
	return updateIn(tx, &tx.state.Notifications, id, patch.Apply)
}

// MarkNotificationRead marks one notification read.
func (tx *Tx) MarkNotificationRead(id string) error {
	return tx.UpdateNotification(id, domain.NotificationPatch{Read: domain.Some(true)})
}

// MarkAllNotificationsRead marks every notification read.
func (tx *Tx) MarkAllNotificationsRead() {
	if !slices.ContainsFunc(tx.state.Notifications, func(n domain.Notification) bool { return !n.Read }) {
		return
	}
	out := make([]domain.Notification, len(tx.state.Notifications))
	for i, n := range tx.state.Notifications {
		n.Read = true
		out[i] = n
	}
	tx.state.Notifications = out
	tx.touch(true)
}

// RemoveNotification removes the notification with id.
func (tx *Tx) RemoveNotification(id string) {
	removeFrom(tx, &tx.state.Notifications, id)
}

// SetNotifications replaces the notification list.
func (tx *Tx) SetNotifications(notifications []domain.Notification) {
	setAll(tx, &tx.state.Notifications, notifications)
}

// AddConversation puts c at the front of the conversation list.
func (tx *Tx) AddConversation(c domain.Conversation) error {
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	stamp(&c.CreatedAt, &c.UpdatedAt, tx.now)
	return addTo(tx, &tx.state.Conversations, c)
}

// UpdateConversation patches the conversation with id.
func (tx *Tx) UpdateConversation(id string, patch domain.ConversationPatch) error {
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = domain.Some(tx.now)
	}
	return updateIn(tx, &tx.state.Conversations, id, patch.Apply)
}

// RemoveConversation removes the conversation with id.
func (tx *Tx) RemoveConversation(id string) {
	removeFrom(tx, &tx.state.Conversations, id)
}

// SetConversations replaces the conversation list.
func (tx *Tx) SetConversations(conversations []domain.Conversation) {
	setAll(tx, &tx.state.Conversations, conversations)
}

// AddMessage puts m at the front of the message list. New messages start
// as sent text.
func (tx *Tx) AddMessage(m domain.Message) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	if m.Type == "" {
		m.Type = domain.MessageText
	}
	if m.Status == "" {
		m.Status = domain.MessageSent
	}
	stamp(&m.CreatedAt, &m.UpdatedAt, tx.now)
	return addTo(tx, &tx.state.Messages, m)
}

// UpdateMessage patches the message with id.
func (tx *Tx) UpdateMessage(id string, patch domain.MessagePatch) error {
	if patch.UpdatedAt == nil {
		patch.UpdatedAt = domain.Some(tx.now)
	}
	return updateIn(tx, &tx.state.Messages, id, patch.Apply)
}

// RemoveMessage removes the message with id.
func (tx *Tx) RemoveMessage(id string) {
	removeFrom(tx, &tx.state.Messages, id)
}

// SetMessages replaces the message list.
func (tx *Tx) SetMessages(messages []domain.Message) {
	setAll(tx, &tx.state.Messages, messages)
}

// AddMatch puts m at the front of the match list.
func (tx *Tx) AddMatch(m domain.Match) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	stamp(&m.CreatedAt, nil, tx.now)
	return addTo(tx, &tx.state.Matches, m)
}

// UpdateMatch patches the match with id.
func (tx *Tx) UpdateMatch(id string, patch domain.MatchPatch) error {
	return updateIn(tx, &tx.state.Matches, id, patch.Apply)
}

// RemoveMatch removes the match with id.
func (tx *Tx) RemoveMatch(id string) {
	removeFrom(tx, &tx.state.Matches, id)
}

// SetMatches replaces the match list.
func (tx *Tx) SetMatches(matches []domain.Match) {
	setAll(tx, &tx.state.Matches, matches)
}

// SetTheme switches between the light and dark themes.
func (tx *Tx) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: theme %q", domain.ErrInvalid, theme)
	}
	if tx.state.UI.Theme == theme {
		return nil
	}
	tx.state.UI.Theme = theme
	tx.touch(true)
	return nil
}

// ToggleSidebar flips the sidebar.
func (tx *Tx) ToggleSidebar() {
	tx.SetSidebarOpen(!tx.state.UI.SidebarOpen)
}

// SetSidebarOpen opens or closes the sidebar.
func (tx *Tx) SetSidebarOpen(open bool) {
	if tx.state.UI.SidebarOpen == open {
		return
	}
	tx.state.UI.SidebarOpen = open
	tx.touch(true)
}

// SetFormProgress records the step reached in a multi-step form.
func (tx *Tx) SetFormProgress(form string, step int) error {
	if form == "" || step < 0 {
		return fmt.Errorf("%w: form progress %q=%d", domain.ErrInvalid, form, step)
	}
	if cur, ok := tx.state.UI.FormProgress[form]; ok && cur == step {
		return nil
	}
	progress := maps.Clone(tx.state.UI.FormProgress)
	if progress == nil {
		progress = map[string]int{}
	}
	progress[form] = step
	tx.state.UI.FormProgress = progress
	tx.touch(true)
	return nil
}

// ToggleSkill adds skill to the selected skill filter, or removes it if it
// is already selected. Skills compare case-insensitively.
func (tx *Tx) ToggleSkill(skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return fmt.Errorf("%w: empty skill", domain.ErrInvalid)
	}
	tx.state.UI.SelectedSkills = domain.ToggleSkill(tx.state.UI.SelectedSkills, skill)
	tx.touch(true)
	return nil
}

// SetSelectedSkills replaces the selected skill filter.
func (tx *Tx) SetSelectedSkills(skills []string) {
	if skills == nil {
		skills = []string{}
	}
	if equal.Deep(tx.state.UI.SelectedSkills, skills) {
		return
	}
	tx.state.UI.SelectedSkills = slices.Clone(skills)
	tx.touch(true)
}

// SetSearchQuery sets the committed project search query.
func (tx *Tx) SetSearchQuery(query string) {
	if tx.state.Search.Query == query {
		return
	}
	tx.state.Search.Query = query
	tx.touch(false)
}

// SetProjectFilter sets the project list filter.
func (tx *Tx) SetProjectFilter(f domain.ProjectFilter) {
	if equal.Deep(tx.state.Search.Filter, f) {
		return
	}
	f.Skills = slices.Clone(f.Skills)
	tx.state.Search.Filter = f
	tx.touch(false)
}

// SetPage sets the current page, starting at 1.
func (tx *Tx) SetPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page %d", domain.ErrInvalid, page)
	}
	if tx.state.Pagination.Page == page {
		return nil
	}
	tx.state.Pagination.Page = page
	tx.touch(false)
	return nil
}

// SetHasMore records whether more pages can be loaded.
func (tx *Tx) SetHasMore(more bool) {
	if tx.state.Pagination.HasMore == more {
		return
	}
	tx.state.Pagination.HasMore = more
	tx.touch(false)
}

// ResetSearch clears the query, the filter and the pagination.
func (tx *Tx) ResetSearch() {
	reset := Search{}
	pages := Pagination{Page: 1}
	if equal.Deep(tx.state.Search, reset) && tx.state.Pagination == pages {
		return
	}
	tx.state.Search = reset
	tx.state.Pagination = pages
	tx.touch(false)
}

package store

import "github.com/fenggwsx/StartupMatch/internal/domain"

// Phase is the lifecycle stage of a Store.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseHydrated
	PhaseLive
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseHydrated:
		return "hydrated"
	case PhaseLive:
		return "live"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Themes accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// UI holds interface preferences. All of it survives a reload.
type UI struct {
	Theme          string
	SidebarOpen    bool
	FormProgress   map[string]int
	SelectedSkills []string
}

// Search is the transient search and filter state of the project list.
type Search struct {
	Query  string
	Filter domain.ProjectFilter
}

// Pagination tracks how far the project list has been loaded.
type Pagination struct {
	Page    int
	HasMore bool
}

// State is an immutable view of the store. Slices and maps inside a State
// are shared with the store and must not be modified.
type State struct {
	User          *domain.User
	Token         string
	Authenticated bool

	Projects      []domain.Project
	Connections   []domain.Connection
	Notifications []domain.Notification
	Conversations []domain.Conversation
	Messages      []domain.Message
	Matches       []domain.Match

	UI         UI
	Search     Search
	Pagination Pagination
}

// DefaultState is the state of a store with nothing to hydrate from.
func DefaultState() State {
	return State{
		Projects:      []domain.Project{},
		Connections:   []domain.Connection{},
		Notifications: []domain.Notification{},
		Conversations: []domain.Conversation{},
		Messages:      []domain.Message{},
		Matches:       []domain.Match{},
		UI: UI{
			Theme:          ThemeLight,
			FormProgress:   map[string]int{},
			SelectedSkills: []string{},
		},
		Pagination: Pagination{Page: 1},
	}
}

package store

import (
	"encoding/json"

	"github.com/fenggwsx/StartupMatch/internal/domain"
)

// Limits on how many items of each collection reach durable storage. The
// in-memory collections are not capped.
const (
	MaxPersistedProjects      = 50
	MaxPersistedConnections   = 100
	MaxPersistedNotifications = 50
	MaxPersistedConversations = 20
	MaxPersistedMessages      = 100
	MaxPersistedMatches       = 50
)

// persisted is the shape written under the storage key. It is a lossy
// projection of State.
type persisted struct {
	User          *domain.User `json:"user"`
	Token         string       `json:"token,omitempty"`
	Authenticated bool         `json:"isAuthenticated"`

	Projects      []domain.Project      `json:"projects"`
	Connections   []domain.Connection   `json:"connections"`
	Notifications []domain.Notification `json:"notifications"`
	Conversations []domain.Conversation `json:"conversations"`
	Messages      []domain.Message      `json:"messages"`
	Matches       []domain.Match        `json:"matches"`

	Theme          string         `json:"theme"`
	SidebarOpen    bool           `json:"sidebarOpen"`
	FormProgress   map[string]int `json:"formProgress"`
	SelectedSkills []string       `json:"selectedSkills"`
}

// project keeps the most recent items of each collection. Read notifications
// are dropped entirely.
func project(s State) persisted {
	unread := make([]domain.Notification, 0, len(s.Notifications))
	for _, n := range s.Notifications {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	return persisted{
		User:           s.User,
		Token:          s.Token,
		Authenticated:  s.Authenticated,
		Projects:       head(s.Projects, MaxPersistedProjects),
		Connections:    head(s.Connections, MaxPersistedConnections),
		Notifications:  head(unread, MaxPersistedNotifications),
		Conversations:  head(s.Conversations, MaxPersistedConversations),
		Messages:       head(s.Messages, MaxPersistedMessages),
		Matches:        head(s.Matches, MaxPersistedMatches),
		Theme:          s.UI.Theme,
		SidebarOpen:    s.UI.SidebarOpen,
		FormProgress:   s.UI.FormProgress,
		SelectedSkills: s.UI.SelectedSkills,
	}
}

// restore builds a State from a decoded snapshot, filling anything the
// snapshot lacks from DefaultState.
func restore(p persisted) State {
	s := DefaultState()
	s.User = p.User
	s.Token = p.Token
	s.Authenticated = p.Authenticated
	s.Projects = orEmpty(p.Projects)
	s.Connections = orEmpty(p.Connections)
	s.Notifications = orEmpty(p.Notifications)
	s.Conversations = orEmpty(p.Conversations)
	s.Messages = orEmpty(p.Messages)
	s.Matches = orEmpty(p.Matches)
	if p.Theme != "" {
		s.UI.Theme = p.Theme
	}
	s.UI.SidebarOpen = p.SidebarOpen
	if p.FormProgress != nil {
		s.UI.FormProgress = p.FormProgress
	}
	if p.SelectedSkills != nil {
		s.UI.SelectedSkills = p.SelectedSkills
	}
	return s
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func decodeObject(obj map[string]any, dst *persisted) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

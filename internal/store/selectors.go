package store

import (
	"github.com/fenggwsx/StartupMatch/internal/domain"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

// Selectors pick one slice of a State. Pair them with Watch to be notified
// only when that slice changes.

func SelectUser(s State) *domain.User { return s.User }
func SelectAuthenticated(s State) bool { return s.Authenticated }
func SelectProjects(s State) []domain.Project { return s.Projects }
func SelectConnections(s State) []domain.Connection { return s.Connections }
func SelectNotifications(s State) []domain.Notification { return s.Notifications }
func SelectConversations(s State) []domain.Conversation { return s.Conversations }
func SelectMessages(s State) []domain.Message { return s.Messages }
func SelectMatches(s State) []domain.Match { return s.Matches }
func SelectUI(s State) UI { return s.UI }
func SelectSearch(s State) Search { return s.Search }
func SelectPagination(s State) Pagination { return s.Pagination }

// SelectUnreadCount counts unread notifications.
func SelectUnreadCount(s State) int {
	n := 0
	for _, item := range s.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// SelectPendingConnections returns the connection requests still awaiting a
// decision.
func SelectPendingConnections(s State) []domain.Connection {
	out := []domain.Connection{}
	for _, c := range s.Connections {
		if c.Status == domain.ConnectionPending {
			out = append(out, c)
		}
	}
	return out
}

// SelectConversationMessages returns a selector for the messages of one
// conversation, most recent first.
func SelectConversationMessages(conversationID string) func(State) []domain.Message {
	return func(s State) []domain.Message {
		out := []domain.Message{}
		for _, m := range s.Messages {
			if m.ConversationID == conversationID {
				out = append(out, m)
			}
		}
		return out
	}
}

// Select applies sel to the current state of st.
func Select[T any](st *Store, sel func(State) T) T {
	return sel(st.State())
}

// Watch calls fn with the selected slice whenever a committed action changes
// it under equal.Deep. Actions touching other slices do not call fn. The
// returned function stops the watch.
func Watch[T any](st *Store, sel func(State) T, fn func(T)) func() {
	return st.Subscribe(func(prev, next State) {
		before, after := sel(prev), sel(next)
		if equal.Deep(before, after) {
			return
		}
		fn(after)
	})
}

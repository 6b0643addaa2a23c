package store

import "github.com/fenggwsx/StartupMatch/internal/domain"

// Login signs user in with an optional session token.
func (s *Store) Login(user domain.User, token string) error {
	return s.update("login", func(tx *Tx) error { return tx.Login(user, token) })
}

// Logout ends the session and clears the user's private collections.
func (s *Store) Logout() error {
	return s.update("logout", func(tx *Tx) error {
		tx.Logout()
		return nil
	})
}

// UpdateUser patches the signed-in user.
func (s *Store) UpdateUser(patch domain.UserPatch) error {
	return s.update("update_user", func(tx *Tx) error { return tx.UpdateUser(patch) })
}

// AddProject prepends a project.
func (s *Store) AddProject(p domain.Project) error {
	return s.update("add_project", func(tx *Tx) error { return tx.AddProject(p) })
}

// UpdateProject patches a project. Unknown ids are ignored.
func (s *Store) UpdateProject(id string, patch domain.ProjectPatch) error {
	return s.update("update_project", func(tx *Tx) error { return tx.UpdateProject(id, patch) })
}

// DeleteProject removes a project.
func (s *Store) DeleteProject(id string) error {
	return s.update("delete_project", func(tx *Tx) error {
		tx.DeleteProject(id)
		return nil
	})
}

// SetProjects replaces every project.
func (s *Store) SetProjects(projects []domain.Project) error {
	return s.update("set_projects", func(tx *Tx) error {
		tx.SetProjects(projects)
		return nil
	})
}

// AddConnection prepends a connection request.
func (s *Store) AddConnection(c domain.Connection) error {
	return s.update("add_connection", func(tx *Tx) error { return tx.AddConnection(c) })
}

// UpdateConnection patches a connection. Decided requests cannot change status.
func (s *Store) UpdateConnection(id string, patch domain.ConnectionPatch) error {
	return s.update("update_connection", func(tx *Tx) error { return tx.UpdateConnection(id, patch) })
}

// RemoveConnection removes a connection.
func (s *Store) RemoveConnection(id string) error {
	return s.update("remove_connection", func(tx *Tx) error {
		tx.RemoveConnection(id)
		return nil
	})
}

// SetConnections replaces every connection.
func (s *Store) SetConnections(connections []domain.Connection) error {
	return s.update("set_connections", func(tx *Tx) error {
		tx.SetConnections(connections)
		return nil
	})
}

// AddNotification prepends a notification.
func (s *Store) AddNotification(n domain.Notification) error {
	return s.update("add_notification", func(tx *Tx) error { return tx.AddNotification(n) })
}

// UpdateNotification patches a notification.
func (s *Store) UpdateNotification(id string, patch domain.NotificationPatch) error {
	return s.update("update_notification", func(tx *Tx) error { return tx.UpdateNotification(id, patch) })
}

// MarkNotificationRead marks one notification read.
func (s *Store) MarkNotificationRead(id string) error {
	return s.update("mark_notification_read", func(tx *Tx) error { return tx.MarkNotificationRead(id) })
}

// MarkAllNotificationsRead marks every notification read.
func (s *Store) MarkAllNotificationsRead() error {
	return s.update("mark_all_notifications_read", func(tx *Tx) error {
		tx.MarkAllNotificationsRead()
		return nil
	})
}

// RemoveNotification removes a notification.
func (s *Store) RemoveNotification(id string) error {
	return s.update("remove_notification", func(tx *Tx) error {
		tx.RemoveNotification(id)
		return nil
	})
}

// SetNotifications replaces every notification.
func (s *Store) SetNotifications(notifications []domain.Notification) error {
	return s.update("set_notifications", func(tx *Tx) error {
		tx.SetNotifications(notifications)
		return nil
	})
}

// AddConversation prepends a conversation.
func (s *Store) AddConversation(c domain.Conversation) error {
	return s.update("add_conversation", func(tx *Tx) error { return tx.AddConversation(c) })
}

// UpdateConversation patches a conversation.
func (s *Store) UpdateConversation(id string, patch domain.ConversationPatch) error {
	return s.update("update_conversation", func(tx *Tx) error { return tx.UpdateConversation(id, patch) })
}

// RemoveConversation removes a conversation.
func (s *Store) RemoveConversation(id string) error {
	return s.update("remove_conversation", func(tx *Tx) error {
		tx.RemoveConversation(id)
		return nil
	})
}

// SetConversations replaces every conversation.
func (s *Store) SetConversations(conversations []domain.Conversation) error {
	return s.update("set_conversations", func(tx *Tx) error {
		tx.SetConversations(conversations)
		return nil
	})
}

// AddMessage prepends a message.
func (s *Store) AddMessage(m domain.Message) error {
	return s.update("add_message", func(tx *Tx) error { return tx.AddMessage(m) })
}

// UpdateMessage patches a message. Delivery status never moves back.
func (s *Store) UpdateMessage(id string, patch domain.MessagePatch) error {
	return s.update("update_message", func(tx *Tx) error { return tx.UpdateMessage(id, patch) })
}

// RemoveMessage removes a message.
func (s *Store) RemoveMessage(id string) error {
	return s.update("remove_message", func(tx *Tx) error {
		tx.RemoveMessage(id)
		return nil
	})
}

// SetMessages replaces every message.
func (s *Store) SetMessages(messages []domain.Message) error {
	return s.update("set_messages", func(tx *Tx) error {
		tx.SetMessages(messages)
		return nil
	})
}

// AddMatch prepends a match.
func (s *Store) AddMatch(m domain.Match) error {
	return s.update("add_match", func(tx *Tx) error { return tx.AddMatch(m) })
}

// UpdateMatch patches a match.
func (s *Store) UpdateMatch(id string, patch domain.MatchPatch) error {
	return s.update("update_match", func(tx *Tx) error { return tx.UpdateMatch(id, patch) })
}

// RemoveMatch removes a match.
func (s *Store) RemoveMatch(id string) error {
	return s.update("remove_match", func(tx *Tx) error {
		tx.RemoveMatch(id)
		return nil
	})
}

// SetMatches replaces every match.
func (s *Store) SetMatches(matches []domain.Match) error {
	return s.update("set_matches", func(tx *Tx) error {
		tx.SetMatches(matches)
		return nil
	})
}

// SetTheme selects ThemeLight or ThemeDark.
func (s *Store) SetTheme(theme string) error {
	return s.update("set_theme", func(tx *Tx) error { return tx.SetTheme(theme) })
}

// ToggleSidebar opens or closes the sidebar.
func (s *Store) ToggleSidebar() error {
	return s.update("toggle_sidebar", func(tx *Tx) error {
		tx.ToggleSidebar()
		return nil
	})
}

// SetSidebarOpen sets the sidebar state.
func (s *Store) SetSidebarOpen(open bool) error {
	return s.update("set_sidebar_open", func(tx *Tx) error {
		tx.SetSidebarOpen(open)
		return nil
	})
}

// SetFormProgress records the step reached in a form.
func (s *Store) SetFormProgress(form string, step int) error {
	return s.update("set_form_progress", func(tx *Tx) error { return tx.SetFormProgress(form, step) })
}

// ToggleSkill adds or removes a skill from the filter.
func (s *Store) ToggleSkill(skill string) error {
	return s.update("toggle_skill", func(tx *Tx) error { return tx.ToggleSkill(skill) })
}

// SetSelectedSkills replaces the skill filter.
func (s *Store) SetSelectedSkills(skills []string) error {
	return s.update("set_selected_skills", func(tx *Tx) error {
		tx.SetSelectedSkills(skills)
		return nil
	})
}

// SetSearchQuery sets the committed search query. Search state is not persisted.
func (s *Store) SetSearchQuery(query string) error {
	return s.update("set_search_query", func(tx *Tx) error {
		tx.SetSearchQuery(query)
		return nil
	})
}

// SetProjectFilter sets the project filter.
func (s *Store) SetProjectFilter(f domain.ProjectFilter) error {
	return s.update("set_project_filter", func(tx *Tx) error {
		tx.SetProjectFilter(f)
		return nil
	})
}

// SetPage sets the current page.
func (s *Store) SetPage(page int) error {
	return s.update("set_page", func(tx *Tx) error { return tx.SetPage(page) })
}

// SetHasMore records whether more pages exist.
func (s *Store) SetHasMore(more bool) error {
	return s.update("set_has_more", func(tx *Tx) error {
		tx.SetHasMore(more)
		return nil
	})
}

// ResetSearch clears search and pagination state.
func (s *Store) ResetSearch() error {
	return s.update("reset_search", func(tx *Tx) error {
		tx.ResetSearch()
		return nil
	})
}

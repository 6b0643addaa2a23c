package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Some returns a pointer to v, for filling patch fields.
func Some[T any](v T) *T {
	return &v
}

// UserPatch updates profile fields. Nil fields are left unchanged.
type UserPatch struct {
	Email     *string
	Name      *string
	Avatar    *string
	Bio       *string
	Skills    *[]string
	Location  *string
	Online    *bool
	LastSeen  *time.Time
	UpdatedAt *time.Time
}

// Apply returns u with the patch merged in.
func (p UserPatch) Apply(u User) (User, error) {
	setIf(&u.Email, p.Email)
	setIf(&u.Name, p.Name)
	setIf(&u.Avatar, p.Avatar)
	setIf(&u.Bio, p.Bio)
	if p.Skills != nil {
		u.Skills = slices.Clone(*p.Skills)
	}
	setIf(&u.Location, p.Location)
	setIf(&u.Online, p.Online)
	setIf(&u.LastSeen, p.LastSeen)
	setIf(&u.UpdatedAt, p.UpdatedAt)
	return u, nil
}

// ProjectPatch updates a project. Status may move freely between known
// statuses.
type ProjectPatch struct {
	Title         *string
	Description   *string
	Category      *string
	Status        *ProjectStatus
	Collaborators *[]string
	Skills        *[]string
	Budget        *Budget
	ClearBudget   bool
	Deadline      *time.Time
	ClearDeadline bool
	UpdatedAt     *time.Time
}

// Apply returns prj with the patch merged in.
func (p ProjectPatch) Apply(prj Project) (Project, error) {
	if p.Status != nil && !p.Status.Valid() {
		return prj, fmt.Errorf("%w: unknown project status %q", ErrInvalid, *p.Status)
	}
	setIf(&prj.Title, p.Title)
	setIf(&prj.Description, p.Description)
	setIf(&prj.Category, p.Category)
	setIf(&prj.Status, p.Status)
	if p.Collaborators != nil {
		prj.Collaborators = slices.Clone(*p.Collaborators)
	}
	if p.Skills != nil {
		prj.Skills = slices.Clone(*p.Skills)
	}
	switch {
	case p.ClearBudget:
		prj.Budget = nil
	case p.Budget != nil:
		b := *p.Budget
		prj.Budget = &b
	}
	switch {
	case p.ClearDeadline:
		prj.Deadline = nil
	case p.Deadline != nil:
		d := *p.Deadline
		prj.Deadline = &d
	}
	setIf(&prj.UpdatedAt, p.UpdatedAt)
	return prj, nil
}

// ConnectionPatch updates a connection request.
type ConnectionPatch struct {
	Status    *ConnectionStatus
	Message   *string
	UpdatedAt *time.Time
}

// Apply returns c with the patch merged in. A pending connection may be
// accepted or rejected; a decided one may not change status again.
func (p ConnectionPatch) Apply(c Connection) (Connection, error) {
	if p.Status != nil && *p.Status != c.Status {
		next := *p.Status
		if c.Status != ConnectionPending || (next != ConnectionAccepted && next != ConnectionRejected) {
			return c, fmt.Errorf("%w: connection %s %s -> %s", ErrInvalidTransition, c.ID, c.Status, next)
		}
		c.Status = next
	}
	setIf(&c.Message, p.Message)
	setIf(&c.UpdatedAt, p.UpdatedAt)
	return c, nil
}

// NotificationPatch updates a notification. Read may only be set to true.
type NotificationPatch struct {
	Title   *string
	Message *string
	Read    *bool
	Data    map[string]any
}

// Apply returns n with the patch merged in.
func (p NotificationPatch) Apply(n Notification) (Notification, error) {
	if p.Read != nil && n.Read && !*p.Read {
		return n, fmt.Errorf("%w: notification %s is already read", ErrInvalidTransition, n.ID)
	}
	setIf(&n.Title, p.Title)
	setIf(&n.Message, p.Message)
	setIf(&n.Read, p.Read)
	if p.Data != nil {
		n.Data = maps.Clone(p.Data)
	}
	return n, nil
}

// ConversationPatch updates a conversation.
type ConversationPatch struct {
	Participants  *[]string
	LastMessageID *string
	UnreadCount   *int
	UpdatedAt     *time.Time
}

// Apply returns c with the patch merged in.
func (p ConversationPatch) Apply(c Conversation) (Conversation, error) {
	if p.UnreadCount != nil && *p.UnreadCount < 0 {
		return c, fmt.Errorf("%w: negative unread count", ErrInvalid)
	}
	if p.Participants != nil {
		c.Participants = slices.Clone(*p.Participants)
	}
	setIf(&c.LastMessageID, p.LastMessageID)
	setIf(&c.UnreadCount, p.UnreadCount)
	setIf(&c.UpdatedAt, p.UpdatedAt)
	return c, nil
}

// MessagePatch updates a message. Status moves sent -> delivered -> read.
type MessagePatch struct {
	Content   *string
	Status    *MessageStatus
	UpdatedAt *time.Time
}

// Apply returns m with the patch merged in.
func (p MessagePatch) Apply(m Message) (Message, error) {
	if p.Status != nil {
		next := *p.Status
		if next.rank() == 0 || next.rank() < m.Status.rank() {
			return m, fmt.Errorf("%w: message %s %s -> %s", ErrInvalidTransition, m.ID, m.Status, next)
		}
		m.Status = next
	}
	setIf(&m.Content, p.Content)
	setIf(&m.UpdatedAt, p.UpdatedAt)
	return m, nil
}

// MatchPatch updates a match.
type MatchPatch struct {
	Score           *float64
	CommonSkills    *[]string
	MutualInterests *[]string
}

// Apply returns m with the patch merged in.
func (p MatchPatch) Apply(m Match) (Match, error) {
	if p.Score != nil && (*p.Score < 0 || *p.Score > 100) {
		return m, fmt.Errorf("%w: score %.1f out of range", ErrInvalid, *p.Score)
	}
	setIf(&m.Score, p.Score)
	if p.CommonSkills != nil {
		m.CommonSkills = slices.Clone(*p.CommonSkills)
	}
	if p.MutualInterests != nil {
		m.MutualInterests = slices.Clone(*p.MutualInterests)
	}
	return m, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

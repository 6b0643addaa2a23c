// Package domain defines the entities held by the client store, their typed
// partial updates, and the status transitions those updates may perform.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition reports a patch that would move an entity's status
	// backwards or sideways.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalid reports an entity that fails validation.
	ErrInvalid = errors.New("invalid entity")
)

// ProjectStatus is the lifecycle stage of a project listing.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// ProjectStatuses lists every status in display order.
var ProjectStatuses = []ProjectStatus{ProjectDraft, ProjectActive, ProjectCompleted, ProjectArchived}

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ConnectionStatus is the state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationConnectionRequest NotificationType = "connection_request"
	NotificationProjectInvite     NotificationType = "project_invite"
	NotificationMessage           NotificationType = "message"
	NotificationSystem            NotificationType = "system"
)

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// MessageStatus is the delivery state of a message. It only moves forward.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case MessageSent:
		return 1
	case MessageDelivered:
		return 2
	case MessageRead:
		return 3
	default:
		return 0
	}
}

// User is the signed-in account.
type User struct {
	ID        string    `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Name      string    `json:"name" validate:"required"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Skills    []string  `json:"skills"`
	Location  string    `json:"location,omitempty"`
	Online    bool      `json:"isOnline"`
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Budget is an optional funding range attached to a project.
type Budget struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gtefield=Min"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

// Project is a listing looking for collaborators.
type Project struct {
	ID            string        `json:"id" validate:"required"`
	Title         string        `json:"title" validate:"required,max=200"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Status        ProjectStatus `json:"status" validate:"oneof=draft active completed archived"`
	OwnerID       string        `json:"ownerId"`
	Collaborators []string      `json:"collaborators"`
	Skills        []string      `json:"skills"`
	Budget        *Budget       `json:"budget,omitempty"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Connection is a request between two users. There is at most one per pair.
type Connection struct {
	ID          string           `json:"id" validate:"required"`
	RequesterID string           `json:"requesterId" validate:"required"`
	TargetID    string           `json:"targetId" validate:"required,nefield=RequesterID"`
	Status      ConnectionStatus `json:"status" validate:"oneof=pending accepted rejected"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Notification is an in-app notice for a user.
type Notification struct {
	ID        string           `json:"id" validate:"required"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type" validate:"oneof=connection_request project_invite message system"`
	Title     string           `json:"title" validate:"required"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Conversation groups messages between participants.
type Conversation struct {
	ID            string    `json:"id" validate:"required"`
	Participants  []string  `json:"participants" validate:"min=1"`
	LastMessageID string    `json:"lastMessageId,omitempty"`
	UnreadCount   int       `json:"unreadCount" validate:"gte=0"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Message is a single chat message inside a conversation.
type Message struct {
	ID             string        `json:"id" validate:"required"`
	ConversationID string        `json:"conversationId" validate:"required"`
	SenderID       string        `json:"senderId" validate:"required"`
	Content        string        `json:"content"`
	Type           MessageType   `json:"type" validate:"oneof=text image file"`
	Status         MessageStatus `json:"status" validate:"oneof=sent delivered read"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Match is a suggested pairing of the subject user with another user.
type Match struct {
	ID              string    `json:"id" validate:"required"`
	UserID          string    `json:"userId" validate:"required"`
	MatchedUserID   string    `json:"matchedUserId" validate:"required"`
	Score           float64   `json:"score" validate:"gte=0,lte=100"`
	CommonSkills    []string  `json:"commonSkills"`
	MutualInterests []string  `json:"mutualInterests"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewID returns a fresh identifier for an entity created on this client.
func NewID() string {
	return uuid.NewString()
}

// EntityID returns p.ID.
func (p Project) EntityID() string { return p.ID }

// EntityID returns c.ID.
func (c Connection) EntityID() string { return c.ID }

// EntityID returns n.ID.
func (n Notification) EntityID() string { return n.ID }

// EntityID returns c.ID.
func (c Conversation) EntityID() string { return c.ID }

// EntityID returns m.ID.
func (m Message) EntityID() string { return m.ID }

// EntityID returns m.ID.
func (m Match) EntityID() string { return m.ID }

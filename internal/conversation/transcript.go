package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Text grows in place while a response
// is streaming and is frozen once the stream terminates.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Streaming bool      `json:"streaming,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// NotificationKind tags a transcript notification.
type NotificationKind string

const (
	// NotificationPending flags a proposed content update awaiting review.
	NotificationPending NotificationKind = "pending_update"
	// NotificationError flags a transport failure.
	NotificationError NotificationKind = "error"
)

// Notification is a dismissible banner attached to the conversation.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Text      string           `json:"text"`
	CreatedAt time.Time        `json:"createdAt"`
}

func newMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func newNotification(kind NotificationKind, text string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

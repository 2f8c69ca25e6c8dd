package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const welcomeID = "welcome"

const welcomeText = "Hello! I'm your AI Pinboard Assistant. How can I help you manage your tasks today?"

// Conversation is the append-only transcript of a session, seeded with a
// welcome message that is never forwarded to the completion service.
type Conversation struct {
	mu       sync.RWMutex
	messages []ChatMessage
}

func NewConversation() *Conversation {
	return &Conversation{
		messages: []ChatMessage{{
			ID:        welcomeID,
			Role:      RoleAssistant,
			Content:   welcomeText,
			Timestamp: time.Now(),
		}},
	}
}

func (c *Conversation) Append(role Role, content string) ChatMessage {
	m := ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return m
}

// Messages returns the full transcript, welcome message included.
func (c *Conversation) Messages() []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// History returns the transcript to forward upstream: everything except the
// welcome seed.
func (c *Conversation) History() []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ChatMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if m.ID == welcomeID {
			continue
		}
		out = append(out, m)
	}
	return out
}

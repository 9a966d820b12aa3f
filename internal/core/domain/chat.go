package domain

import (
	"errors"
	"time"
)

type ChatStatus string

const (
	ChatUnread  ChatStatus = "unread"
	ChatRead    ChatStatus = "read"
	ChatReplied ChatStatus = "replied"
)

var ErrMessageNotFound = errors.New("message not found")
var ErrAlreadyReplied = errors.New("message already replied")

// ChatMessage is a support message from a user, optionally answered by an admin.
type ChatMessage struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	AdminID       string     `json:"admin_id,omitempty"`
	Content       string     `json:"content"`
	AdminResponse *string    `json:"admin_response"`
	Status        ChatStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

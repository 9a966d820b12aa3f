package realtime

import (
	"encoding/json"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

// Frame types.
const (
	TypeChat       = "chat"
	TypeAdminReply = "admin_reply"
	TypeNewMessage = "new_message"
	TypeAck        = "ack"
	TypeError      = "error"
)

// inboundFrame is the union of every client to server frame.
type inboundFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	MessageID string `json:"messageId"`
}

type chatFrame struct {
	Content string `validate:"required,max=2000"`
}

type adminReplyFrame struct {
	MessageID string `validate:"required"`
	Content   string `validate:"required,max=2000"`
}

// outboundFrame is every server to client frame.
type outboundFrame struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func encodeMessage(typ string, msg *domain.ChatMessage) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: typ, Message: msg})
}

func encodeError(text string) []byte {
	b, _ := json.Marshal(outboundFrame{Type: TypeError, Error: text})
	return b
}

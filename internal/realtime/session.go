package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

const frameTimeout = 10 * time.Second

var validate = validator.New()

// Server runs socket sessions: it registers the connection, feeds inbound
// frames to the chat service and unregisters on exit.
type Server struct {
	registry *Registry
	chat     ports.ChatService
	opts     ClientOptions
	log      zerolog.Logger
}

func NewServer(registry *Registry, chat ports.ChatService, opts ClientOptions, log zerolog.Logger) *Server {
	return &Server{registry: registry, chat: chat, opts: opts, log: log}
}

// Serve blocks until the connection ends.
func (s *Server) Serve(ctx context.Context, ws *websocket.Conn, userID, role string) {
	client := NewClient(ws, s.opts)
	entry, prev := s.registry.Register(userID, role, client)
	if prev != nil {
		_ = prev.Conn.Close()
	}
	log := s.log.With().Str("user_id", userID).Str("conn_id", entry.ID).Logger()
	log.Info().Str("role", role).Msg("socket connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go client.KeepAlive(ctx)

	sess := newSession(userID, role, client, s.chat, log)
	err := client.ReadLoop(func(data []byte) { sess.handle(ctx, data) })

	s.registry.Remove(entry)
	_ = client.Close()

	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Debug().Err(err).Msg("socket read ended")
	}
	log.Info().Msg("socket disconnected")
}

// session is the per-connection frame handler.
type session struct {
	userID string
	role   string
	conn   Conn
	chat   ports.ChatService
	log    zerolog.Logger
}

func newSession(userID, role string, conn Conn, chat ports.ChatService, log zerolog.Logger) *session {
	return &session{userID: userID, role: role, conn: conn, chat: chat, log: log}
}

func (s *session) handle(ctx context.Context, data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		s.reply(encodeError("malformed frame"))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	var (
		msg *domain.ChatMessage
		err error
	)
	switch in.Type {
	case TypeChat:
		if s.role != domain.RoleUser {
			err = domain.ErrForbidden
			break
		}
		f := chatFrame{Content: in.Content}
		if err = validate.Struct(f); err != nil {
			break
		}
		msg, err = s.chat.SendUserMessage(ctx, s.userID, f.Content)
	case TypeAdminReply:
		if s.role != domain.RoleAdmin {
			err = domain.ErrForbidden
			break
		}
		f := adminReplyFrame{MessageID: in.MessageID, Content: in.Content}
		if err = validate.Struct(f); err != nil {
			break
		}
		msg, err = s.chat.SendAdminReply(ctx, f.MessageID, s.userID, f.Content)
	default:
		s.reply(encodeError("unknown frame type"))
		return
	}

	if err != nil {
		s.reply(encodeError(s.errorText(in.Type, err)))
		return
	}
	frame, err := encodeMessage(TypeAck, msg)
	if err != nil {
		s.log.Error().Err(err).Msg("encode ack frame")
		return
	}
	s.reply(frame)
}

func (s *session) errorText(frameType string, err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return "invalid frame"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrMessageNotFound):
		return "message not found"
	case errors.Is(err, domain.ErrAlreadyReplied):
		return "message already replied"
	default:
		s.log.Error().Err(err).Str("frame_type", frameType).Msg("socket frame failed")
		return "internal error"
	}
}

func (s *session) reply(frame []byte) {
	if err := s.conn.Send(frame); err != nil {
		s.log.Warn().Err(err).Msg("socket reply failed")
	}
}

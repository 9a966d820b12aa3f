package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/infrastructure/queue"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	err    error
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) decoded(t *testing.T) []outboundFrame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]outboundFrame, 0, len(c.frames))
	for _, f := range c.frames {
		var of outboundFrame
		if err := json.Unmarshal(f, &of); err != nil {
			t.Fatalf("decode frame %s: %v", f, err)
		}
		out = append(out, of)
	}
	return out
}

// syncPusher delivers jobs inline.
type syncPusher struct {
	jobs []queue.Job
}

func (p *syncPusher) Enqueue(job queue.Job) bool {
	p.jobs = append(p.jobs, job)
	_ = job.Target.Send(job.Frame)
	return true
}

type stubChat struct {
	sent    []string
	replies map[string]string
	err     error
}

func (s *stubChat) SendUserMessage(_ context.Context, userID, content string) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, content)
	return &domain.ChatMessage{ID: "m1", UserID: userID, Content: content, Status: domain.ChatUnread}, nil
}

func (s *stubChat) SendAdminReply(_ context.Context, messageID, adminID, content string) (*domain.ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.replies == nil {
		s.replies = map[string]string{}
	}
	if _, ok := s.replies[messageID]; ok {
		return nil, domain.ErrAlreadyReplied
	}
	s.replies[messageID] = content
	return &domain.ChatMessage{ID: messageID, UserID: "u1", AdminID: adminID, AdminResponse: &content, Status: domain.ChatReplied}, nil
}

func (s *stubChat) MarkRead(context.Context, string) (*domain.ChatMessage, error) {
	return nil, nil
}

func (s *stubChat) List(context.Context, ports.ChatFilter) ([]*domain.ChatMessage, error) {
	return nil, nil
}

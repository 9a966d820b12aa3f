package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingSender struct {
	mu     sync.Mutex
	frames []string
	err    error
	done   chan struct{}
	want   int
}

func (s *recordingSender) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, string(frame))
	if len(s.frames) == s.want {
		close(s.done)
	}
	return s.err
}

func newRecordingSender(want int) *recordingSender {
	return &recordingSender{done: make(chan struct{}), want: want}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(4, zerolog.Nop())
	d.Start(ctx)

	sender := newRecordingSender(50)
	for i := 0; i < 50; i++ {
		d.Enqueue(Job{UserID: "u1", Target: sender, Frame: []byte{byte('A' + i%26)}})
	}
	waitFor(t, sender.done)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for i, f := range sender.frames {
		if f != string([]byte{byte('A' + i%26)}) {
			t.Fatalf("frame %d out of order: %q", i, f)
		}
	}
}

func TestDispatcher_SendFailureIsSwallowed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1, zerolog.Nop())
	d.Start(ctx)

	failing := newRecordingSender(1)
	failing.err = errors.New("broken pipe")
	ok := newRecordingSender(1)

	d.Enqueue(Job{UserID: "u1", Target: failing, Frame: []byte("x")})
	d.Enqueue(Job{UserID: "u2", Target: ok, Frame: []byte("y")})

	waitFor(t, failing.done)
	waitFor(t, ok.done)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	// Workers are not started, so the shard fills up.
	d := NewDispatcher(1, zerolog.Nop())
	sender := newRecordingSender(-1)

	accepted := 0
	for i := 0; i < channelBuffer+10; i++ {
		if d.Enqueue(Job{UserID: "u1", Target: sender, Frame: []byte("x")}) {
			accepted++
		}
	}
	if accepted != channelBuffer {
		t.Fatalf("expected %d accepted, got %d", channelBuffer, accepted)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("user-42") != first {
			t.Fatal("shard index must be deterministic")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_WaitReturnsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(2, zerolog.Nop())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	waitFor(t, done)
}

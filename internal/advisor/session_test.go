package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastLen int
	seen    [][]Turn
}

func (m *fakeModel) Generate(_ context.Context, history []Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastLen = len(history)
	m.seen = append(m.seen, append([]Turn(nil), history...))
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

var testSnapshot = []core.CategoryAmount{
	{Category: "Food", Amount: 12.5},
	{Category: "Rent", Amount: 900},
}

func TestSession_SendBeforeInitialize(t *testing.T) {
	model := &fakeModel{reply: "hi"}
	s := NewSession(model, log.Discard())

	if got := s.SendMessage(context.Background(), "hello"); got != NotInitializedReply {
		t.Errorf("SendMessage() = %q, want %q", got, NotInitializedReply)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times before initialize", model.calls)
	}
	if s.Active() {
		t.Error("session should be inactive")
	}
}

func TestSession_Initialize(t *testing.T) {
	s := NewSession(&fakeModel{}, log.Discard())

	if got := s.Initialize(context.Background(), testSnapshot); got != Greeting {
		t.Errorf("Initialize() = %q, want %q", got, Greeting)
	}
	if !s.Active() {
		t.Fatal("session should be active")
	}

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history length = %d, want 2", len(h))
	}
	if h[0].Role != RoleUser || !strings.Contains(h[0].Text, "[['Food', 12.5], ['Rent', 900.0]]") {
		t.Errorf("first turn = %+v", h[0])
	}
	if h[1].Role != RoleModel || h[1].Text != Acknowledgment {
		t.Errorf("second turn = %+v", h[1])
	}
}

func TestSession_SendMessage(t *testing.T) {
	model := &fakeModel{reply: "Spend less on food."}
	s := NewSession(model, log.Discard())
	ctx := context.Background()
	s.Initialize(ctx, testSnapshot)

	if got := s.SendMessage(ctx, "How do I save?"); got != "Spend less on food." {
		t.Fatalf("SendMessage() = %q", got)
	}
	if model.lastLen != 3 {
		t.Errorf("model saw %d turns, want 3", model.lastLen)
	}
	last := model.seen[0][2]
	if last.Role != RoleUser || last.Text != "How do I save?" {
		t.Errorf("last turn = %+v", last)
	}

	h := s.History()
	if len(h) != 4 || h[3].Role != RoleModel || h[3].Text != "Spend less on food." {
		t.Errorf("history after reply = %+v", h)
	}

	// the second exchange carries the first
	s.SendMessage(ctx, "And rent?")
	if model.lastLen != 5 {
		t.Errorf("model saw %d turns on second message, want 5", model.lastLen)
	}
}

func TestSession_SendMessageFailures(t *testing.T) {
	tests := []struct {
		name      string
		model     Model
		text      string
		wantReply string
	}{
		{
			name:      "remote failure",
			model:     &fakeModel{err: errors.New("quota exceeded")},
			text:      "hello",
			wantReply: "I encountered an error: quota exceeded",
		},
		{
			name:      "model not configured",
			model:     nil,
			text:      "hello",
			wantReply: "I encountered an error: " + core.ErrModelNotConfigured.Error(),
		},
		{
			name:      "blank message",
			model:     &fakeModel{reply: "unused"},
			text:      "   ",
			wantReply: "I encountered an error: " + ErrEmptyMessage.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.model, log.Discard())
			ctx := context.Background()
			s.Initialize(ctx, testSnapshot)

			if got := s.SendMessage(ctx, tt.text); got != tt.wantReply {
				t.Errorf("SendMessage() = %q, want %q", got, tt.wantReply)
			}
			if n := len(s.History()); n != 2 {
				t.Errorf("history length = %d after failure, want 2", n)
			}
		})
	}
}

func TestSession_ReinitializeResets(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	s := NewSession(model, log.Discard())
	ctx := context.Background()

	s.Initialize(ctx, testSnapshot)
	s.SendMessage(ctx, "first")
	if n := len(s.History()); n != 4 {
		t.Fatalf("history length = %d, want 4", n)
	}

	s.Initialize(ctx, []core.CategoryAmount{{Category: "Travel", Amount: 40}})
	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history length after reset = %d, want 2", len(h))
	}
	if !strings.Contains(h[0].Text, "['Travel', 40.0]") || strings.Contains(h[0].Text, "Food") {
		t.Errorf("brief not rebuilt from new snapshot: %q", h[0].Text)
	}
}

// blockingModel waits until released so a reset can happen mid-call.
type blockingModel struct {
	started chan struct{}
	release chan struct{}
}

func (m *blockingModel) Generate(ctx context.Context, _ []Turn) (string, error) {
	close(m.started)
	<-m.release
	return "late reply", nil
}

func TestSession_ReplyAfterResetIsDropped(t *testing.T) {
	model := &blockingModel{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(model, log.Discard())
	ctx := context.Background()
	s.Initialize(ctx, testSnapshot)

	done := make(chan string)
	go func() { done <- s.SendMessage(ctx, "slow question") }()

	<-model.started
	s.Initialize(ctx, testSnapshot)
	close(model.release)

	if got := <-done; got != "late reply" {
		t.Errorf("SendMessage() = %q", got)
	}
	if n := len(s.History()); n != 2 {
		t.Errorf("history length = %d, want 2 (reply belongs to the old conversation)", n)
	}
}

func TestSession_ConcurrentUse(t *testing.T) {
	s := NewSession(&fakeModel{reply: "ok"}, log.Discard())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Initialize(ctx, testSnapshot)
		}()
		go func() {
			defer wg.Done()
			s.SendMessage(ctx, "hi")
		}()
	}
	wg.Wait()

	if !s.Active() {
		t.Error("session should be active")
	}
}

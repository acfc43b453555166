package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

// ErrEmptyMessage is reported for a blank chat message.
var ErrEmptyMessage = errors.New("message is empty")

// Session holds the one active conversation. It starts Uninitialized and
// becomes Active on Initialize; a later Initialize replaces the conversation.
//
// The slot is safe for concurrent use, but interleaved callers share one
// history and get no continuity guarantees.
type Session struct {
	model  Model
	logger *log.Logger

	mu      sync.Mutex
	history []Turn
	active  bool
	// generation changes on every Initialize so a reply to an older
	// conversation is not appended to a newer one
	generation uint64
}

// NewSession creates an uninitialized session. A nil model is allowed; every
// message then gets an error reply.
func NewSession(model Model, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Session{
		model:  model,
		logger: logger.WithComponent(log.ComponentAdvisor),
	}
}

// Initialize seeds a fresh conversation with the snapshot and returns the greeting.
func (s *Session) Initialize(ctx context.Context, snapshot []core.CategoryAmount) string {
	history := []Turn{
		{Role: RoleUser, Text: Brief(snapshot)},
		{Role: RoleModel, Text: Acknowledgment},
	}

	s.mu.Lock()
	s.history = history
	s.active = true
	s.generation++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Chat session initialized",
		log.FieldOperation, log.OpChatInit,
		log.FieldCount, len(snapshot))

	return Greeting
}

// Active reports whether Initialize has been called.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SendMessage relays text to the model and returns its reply. Failures are
// returned as reply text; history only grows when the model answers.
func (s *Session) SendMessage(ctx context.Context, text string) string {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return NotInitializedReply
	}
	gen := s.generation
	history := make([]Turn, len(s.history), len(s.history)+1)
	copy(history, s.history)
	s.mu.Unlock()

	reply, err := s.exchange(ctx, append(history, Turn{Role: RoleUser, Text: text}))
	if err != nil {
		s.logger.WarnContext(ctx, "Chat message failed",
			log.FieldOperation, log.OpChatSend,
			log.FieldErrorType, core.KindOf(err).String(),
			log.FieldError, err)
		return ErrorReply(err)
	}

	s.mu.Lock()
	if s.generation == gen {
		s.history = append(s.history,
			Turn{Role: RoleUser, Text: text},
			Turn{Role: RoleModel, Text: reply})
	}
	s.mu.Unlock()

	return reply
}

func (s *Session) exchange(ctx context.Context, history []Turn) (string, error) {
	const op = "send chat message"

	if strings.TrimSpace(history[len(history)-1].Text) == "" {
		return "", core.Validation(op, ErrEmptyMessage)
	}
	if s.model == nil {
		return "", core.RemoteService(op, core.ErrModelNotConfigured)
	}

	reply, err := s.model.Generate(ctx, history)
	if err != nil {
		return "", core.RemoteService(op, err)
	}
	return reply, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

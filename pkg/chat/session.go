// Package chat keeps the conversation with one user and runs each question
// through matching and composition.
package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/retrieval"
)

// Greeting is the assistant's first message in every session.
const Greeting = "Halo! Ada yang bisa saya bantu terkait karir data science di Indonesia?"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Matcher decides whether the knowledge base has context for a query.
type Matcher interface {
	Match(ctx context.Context, query string) (retrieval.MatchResult, error)
}

// Composer writes the assistant's reply.
type Composer interface {
	Compose(ctx context.Context, query string, result retrieval.MatchResult) string
}

// Reply is the outcome of one answered question.
type Reply struct {
	Text   string
	Result retrieval.MatchResult
}

// Session is a single-user conversation. Questions are answered one at a
// time; the log only grows.
type Session struct {
	id       string
	matcher  Matcher
	composer Composer
	logger   *zap.Logger

	mu    sync.Mutex
	turns []Turn
}

// NewSession starts a conversation containing the greeting.
func NewSession(matcher Matcher, composer Composer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		matcher:  matcher,
		composer: composer,
		logger:   logger.With(zap.String("session_id", id)),
		turns:    []Turn{{Role: RoleAssistant, Content: Greeting}},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Ask records query, answers it, and records exactly one assistant turn.
// A failure to embed the query is returned as is and no assistant turn is
// recorded; generation failures are already masked by the Composer.
func (s *Session) Ask(ctx context.Context, query string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{Role: RoleUser, Content: query})

	result, err := s.matcher.Match(ctx, query)
	if err != nil {
		s.logger.Error("matching query", zap.Error(err))
		return Reply{}, err
	}

	if m, ok := result.(retrieval.Matched); ok {
		s.logger.Info("answering from knowledge base", zap.Int("index", m.Index), zap.Float64("score", m.Score))
	} else {
		s.logger.Info("no knowledge base match, using fallback prompt")
	}

	text := s.composer.Compose(ctx, query, result)
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Content: text})

	return Reply{Text: text, Result: result}, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]Turn, len(s.turns))
	copy(history, s.turns)
	return history
}

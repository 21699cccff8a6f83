package session

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DefaultID is the session used when the user does not name one.
const DefaultID = "assistant"

// Service looks up stored sessions for a front end.
type Service struct {
	store Store
}

// NewService creates a new session service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// NewID returns a fresh, unused session id.
func NewID() string {
	return "chat-" + uuid.NewString()[:8]
}

// Resolve maps user input to a session id. Blank input selects DefaultID.
func Resolve(input string) string {
	id := strings.TrimSpace(input)
	if id == "" {
		return DefaultID
	}
	return id
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*Info, error) {
	return s.store.Get(ctx, id)
}

// List returns all sessions.
func (s *Service) List(ctx context.Context) ([]*Info, error) {
	return s.store.List(ctx)
}

// Search searches sessions by keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]*Info, error) {
	return s.store.Search(ctx, keyword)
}

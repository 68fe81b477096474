// Package sessions keeps server-side login state keyed by an opaque id.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side half of a login. Only ID ever leaves the server.
type Session struct {
	ID        string       `json:"id"`
	State     string       `json:"state,omitempty"`
	User      *models.User `json:"user,omitempty"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func New(ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store persists sessions. Get returns ErrNotFound for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Package state issues and checks the anti-forgery state parameter that is
// round-tripped through the authorization server.
//
// A token is not invalidated after a successful check: it stays valid until
// a newer one is issued for the same identity or its storage lifetime ends.
package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/brizzai/dingtalk-oauth/internal/logger"
	"go.uber.org/zap"
)

// tokenBytes yields a 40 character hex token
const tokenBytes = 20

// ErrNotFound is returned by a Backend when nothing is stored for a key
var ErrNotFound = errors.New("state not found")

// Store issues a state token and validates the value returned by the callback
type Store interface {
	// Issue generates a new token and records it as the expected value
	Issue(ctx context.Context) (string, error)
	// Validate reports whether state equals the last issued token
	Validate(ctx context.Context, state string) bool
}

// Backend persists the expected token per identity
type Backend interface {
	Save(ctx context.Context, key, state string) error
	Load(ctx context.Context, key string) (string, error)
}

// GenerateToken returns a random opaque token
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type bound struct {
	backend Backend
	key     string
}

// Bind adapts a keyed backend into a Store for one identity
func Bind(backend Backend, identity string) Store {
	return &bound{backend: backend, key: identity}
}

func (b *bound) Issue(ctx context.Context) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if err := b.backend.Save(ctx, b.key, token); err != nil {
		return "", err
	}
	return token, nil
}

func (b *bound) Validate(ctx context.Context, state string) bool {
	expected, err := b.backend.Load(ctx, b.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("failed to load state", zap.Error(err))
		}
		return false
	}
	return matches(expected, state)
}

// matches is an exact comparison; an empty expected value never matches
func matches(expected, supplied string) bool {
	return expected != "" && expected == supplied
}

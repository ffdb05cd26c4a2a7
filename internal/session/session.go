// Package session keeps the signed-in shopper's display name. There are no
// accounts or passwords; signing up and signing in are the same operation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/store"
)

// InvalidNameMessage is shown when ErrInvalidName is returned.
const InvalidNameMessage = "Please enter a valid name."

var ErrInvalidName = errors.New("session: name is blank")

type Session struct {
	kv     store.KV
	logger *zap.Logger
}

func New(kv store.KV, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{kv: kv, logger: logger}
}

// SignIn stores the trimmed name and returns it.
func (s *Session) SignIn(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}

	raw, err := json.Marshal(name)
	if err != nil {
		return "", fmt.Errorf("encode username: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyUsername, string(raw)); err != nil {
		return "", fmt.Errorf("save username: %w", err)
	}
	return name, nil
}

// Current returns the signed-in name, or "" when nobody is signed in.
func (s *Session) Current(ctx context.Context) (string, error) {
	raw, ok, err := s.kv.Get(ctx, store.KeyUsername)
	if err != nil {
		return "", fmt.Errorf("load username: %w", err)
	}
	if !ok {
		return "", nil
	}

	var name string
	if err := json.Unmarshal([]byte(raw), &name); err != nil {
		s.logger.Warn("stored username is malformed, treating as signed out", zap.Error(err))
		return "", nil
	}
	return name, nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if err := s.kv.Delete(ctx, store.KeyUsername); err != nil {
		return fmt.Errorf("delete username: %w", err)
	}
	return nil
}

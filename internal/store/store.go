// Package store is the persistence boundary: decoration documents and the
// append-only chat history. Errors never cross this boundary as hard
// failures — callers degrade to memory-only behavior.
package store

import (
	"context"
	"errors"

	"github.com/dkeye/Office/internal/domain"
)

var ErrDisabled = errors.New("store disabled")

type Store interface {
	// LoadDecorations returns the room's document, creating an empty one
	// when absent (upsert-on-read).
	LoadDecorations(ctx context.Context, room domain.RoomName) (*domain.Decoration, error)
	// SaveDecorations replaces the room's document wholesale and returns
	// the persisted version. Last writer wins.
	SaveDecorations(ctx context.Context, dec *domain.Decoration) (*domain.Decoration, error)

	AppendChat(ctx context.Context, msg domain.ChatMessage) error
	// ChatHistory returns up to limit messages for room, newest first.
	ChatHistory(ctx context.Context, room domain.RoomName, limit int64) ([]domain.ChatMessage, error)
	// UpdateTranslation rewrites the translation of one message. Reports
	// false when no message matches.
	UpdateTranslation(ctx context.Context, messageID, translation string, fresh bool) (bool, error)

	Close(ctx context.Context) error
}

// Disabled is the soft-failure fallback used when the database is
// unreachable: reads return empty defaults, writes are refused and the
// caller logs and moves on.
type Disabled struct{}

func (Disabled) LoadDecorations(_ context.Context, room domain.RoomName) (*domain.Decoration, error) {
	return domain.EmptyDecoration(room), nil
}

func (Disabled) SaveDecorations(context.Context, *domain.Decoration) (*domain.Decoration, error) {
	return nil, ErrDisabled
}

func (Disabled) AppendChat(context.Context, domain.ChatMessage) error {
	return ErrDisabled
}

func (Disabled) ChatHistory(context.Context, domain.RoomName, int64) ([]domain.ChatMessage, error) {
	return []domain.ChatMessage{}, nil
}

func (Disabled) UpdateTranslation(context.Context, string, string, bool) (bool, error) {
	return false, ErrDisabled
}

func (Disabled) Close(context.Context) error { return nil }

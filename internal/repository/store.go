// Package repository содержит хранилища сериализованного состояния трекера.
package repository

import (
	"context"
	"errors"
)

// StateKey задаёт пространство имён, под которым хранится список пожертвований.
const StateKey = "oba_donations_v1"

// ErrNotFound возвращается, если по ключу ничего не сохранено.
var ErrNotFound = errors.New("state not found")

// Store описывает хранилище JSON-текста по ключу.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Close() error
}

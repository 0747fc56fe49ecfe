// Package session keeps live tower runs between HTTP requests.
package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found")

// Store holds values by opaque id.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	NewID() string
}

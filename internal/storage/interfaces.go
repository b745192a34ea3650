package storage

import (
	"context"

	"github.com/nuitsjp/teams-board/internal/domain/board"
)

// ObjectStore is the narrow capability the engine needs from blob storage:
// best-effort idempotent PUT and whole-object GET. There are no conditional
// writes, no transactions and no locks; the write sequencer layers an
// optimistic fetch-latest/compare/write protocol on top.
type ObjectStore interface {
	Write(ctx context.Context, path string, content []byte, contentType string) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// IndexSource fetches the latest serialized dashboard index.
type IndexSource interface {
	Fetch(ctx context.Context) (*board.Index, error)
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nuitsjp/teams-board/internal/domain/board"
)

type storeSource struct {
	store ObjectStore
}

// NewIndexSource returns an IndexSource reading the index object from the
// given store. A missing index object yields a fresh empty index: the
// aggregate is created lazily on first write.
func NewIndexSource(store ObjectStore) IndexSource {
	return &storeSource{store: store}
}

func (s *storeSource) Fetch(ctx context.Context) (*board.Index, error) {
	data, err := s.store.Read(ctx, IndexPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return board.NewIndex(), nil
		}
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	var idx board.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	return &idx, nil
}

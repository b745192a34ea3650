package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nuitsjp/teams-board/internal/domain/board"
)

// ObjectStore is a mock for storage.ObjectStore.
type ObjectStore struct {
	mock.Mock
}

func (m *ObjectStore) Write(ctx context.Context, path string, content []byte, contentType string) error {
	args := m.Called(ctx, path, content, contentType)
	return args.Error(0)
}

func (m *ObjectStore) Read(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

// IndexSource is a mock for storage.IndexSource.
type IndexSource struct {
	mock.Mock
}

func (m *IndexSource) Fetch(ctx context.Context) (*board.Index, error) {
	args := m.Called(ctx)
	if idx, ok := args.Get(0).(*board.Index); ok {
		return idx, args.Error(1)
	}
	return nil, args.Error(1)
}

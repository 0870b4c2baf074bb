package publish

import (
	"context"
	"fmt"

	"github.com/zorse-project/zorse/pkg/storage"
)

type memStore map[string][]byte

func newMemStore() memStore { return memStore{} }

func (m memStore) Put(ctx context.Context, key string, data []byte) error {
	m[key] = append([]byte(nil), data...)
	return nil
}

func (m memStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return data, nil
}

package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zorse-project/zorse/pkg/dataset"
	"github.com/zorse-project/zorse/pkg/storage"
)

const markerKey = ".zorse-repo.yaml"

type marker struct {
	ID        string    `yaml:"id"`
	Private   bool      `yaml:"private"`
	CreatedAt time.Time `yaml:"created_at"`
}

// StoreRepository keeps repositories in a blob store, one key prefix per
// repository id.
type StoreRepository struct {
	Store storage.BlobStore
	// BaseURL prefixes repository URLs, e.g. "s3://bucket/prefix".
	BaseURL string
	now     func() time.Time
}

func NewStoreRepository(store storage.BlobStore, baseURL string) *StoreRepository {
	return &StoreRepository{Store: store, BaseURL: baseURL, now: time.Now}
}

func (r *StoreRepository) EnsureRepo(ctx context.Context, id string, private bool) error {
	_, err := r.Store.Get(ctx, path.Join(id, markerKey))
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check repository %s: %w", id, err)
	}

	data, err := yaml.Marshal(marker{ID: id, Private: private, CreatedAt: r.now().UTC()})
	if err != nil {
		return err
	}
	if err := r.Store.Put(ctx, path.Join(id, markerKey), data); err != nil {
		return fmt.Errorf("create repository %s: %w", id, err)
	}
	return nil
}

func (r *StoreRepository) Load(ctx context.Context, id string) ([]json.RawMessage, error) {
	data, err := r.Store.Get(ctx, path.Join(id, DataPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return dataset.ReadRows(bytes.NewReader(data))
}

// Replace writes the data file before the card so a reader never sees a card
// describing rows that are not there yet.
func (r *StoreRepository) Replace(ctx context.Context, id string, rows []json.RawMessage) error {
	if err := r.Store.Put(ctx, path.Join(id, DataPath), dataset.EncodeRows(rows)); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	card, err := DatasetCard(id, len(rows))
	if err != nil {
		return err
	}
	return r.Store.Put(ctx, path.Join(id, "README.md"), card)
}

func (r *StoreRepository) URL(id string) string {
	return r.BaseURL + "/" + id
}

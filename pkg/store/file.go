package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/scene"
)

// FileStore keeps one JSON file per scene in a directory.
// Scene ids are UUIDs, so they are safe as file names.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store in dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "creating store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Put saves a scene, replacing any existing file with the same id.
func (st *FileStore) Put(ctx context.Context, s *scene.Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encoding scene %s", s.ID)
	}
	if err := os.WriteFile(st.path(s.ID), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "writing scene %s", s.ID)
	}
	return nil
}

// Get retrieves a scene by id.
func (st *FileStore) Get(ctx context.Context, id string) (*scene.Scene, error) {
	data, err := os.ReadFile(st.path(id))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "scene %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "reading scene %s", id)
	}

	var s scene.Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decoding scene %s", id)
	}
	return &s, nil
}

// List returns metadata for all stored scenes, newest first.
func (st *FileStore) List(ctx context.Context) ([]scene.Info, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "listing store directory")
	}

	infos := []scene.Info{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := st.Get(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			// Skip entries that no longer decode rather than failing the listing
			continue
		}
		infos = append(infos, s.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Delete removes a scene by id.
func (st *FileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(st.path(id))
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeSceneNotFound, "scene %s not found", id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "deleting scene %s", id)
	}
	return nil
}

// Close does nothing for the file store.
func (st *FileStore) Close(ctx context.Context) error {
	return nil
}

func (st *FileStore) path(id string) string {
	// Ids come from uuid.NewString, but hand-addressed lookups must not
	// escape the store directory.
	return filepath.Join(st.dir, filepath.Base(id)+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/scene"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return st
}

func buildScene(t *testing.T, name string) *scene.Scene {
	t.Helper()
	return scene.Build(name, "api: service\ndb: database\napi -> db\n", layout.Options{})
}

func TestFileStorePutGet(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := buildScene(t, "checkout")

	if err := st.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != s.ID || got.Name != "checkout" {
		t.Error("stored scene should keep its identity")
	}
	if got.Topology.NodeCount() != 2 {
		t.Errorf("nodes = %d, want 2", got.Topology.NodeCount())
	}
}

func TestFileStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := buildScene(t, "checkout")

	if err := st.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Name = "checkout-v2"
	s.Touch()
	if err := st.Put(ctx, s); err != nil {
		t.Fatalf("Put again: %v", err)
	}

	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "checkout-v2" {
		t.Errorf("Name = %q, want checkout-v2", got.Name)
	}

	infos, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("replacing should not add entries: got %d", len(infos))
	}
}

func TestFileStorePutRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := buildScene(t, "checkout")
	s.Name = "../escape"

	if err := st.Put(ctx, s); err == nil {
		t.Error("invalid scene should be rejected")
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	_, err := st.Get(ctx, "no-such-id")
	if err == nil {
		t.Fatal("missing scene should be an error")
	}
	if !errors.Is(err, errors.ErrCodeSceneNotFound) {
		t.Errorf("wrong error code: %v", err)
	}
}

func TestFileStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	older := buildScene(t, "older")
	newer := buildScene(t, "newer")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt

	if err := st.Put(ctx, older); err != nil {
		t.Fatalf("Put older: %v", err)
	}
	if err := st.Put(ctx, newer); err != nil {
		t.Fatalf("Put newer: %v", err)
	}

	infos, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len = %d, want 2", len(infos))
	}
	if infos[0].Name != "newer" || infos[1].Name != "older" {
		t.Errorf("order = %s, %s; want newer, older", infos[0].Name, infos[1].Name)
	}
	if infos[0].Nodes != 2 || infos[0].Edges != 1 {
		t.Errorf("counts = %d/%d, want 2/1", infos[0].Nodes, infos[0].Edges)
	}
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := buildScene(t, "checkout")
	if err := st.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A stray file in the directory must not break the listing
	if err := os.WriteFile(filepath.Join(st.dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(st.dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("writing broken file: %v", err)
	}

	infos, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("len = %d, want 1", len(infos))
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := buildScene(t, "checkout")
	if err := st.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, errors.ErrCodeSceneNotFound) {
		t.Error("deleted scene should be gone")
	}

	// Deleting again reports not found
	if err := st.Delete(ctx, s.ID); !errors.Is(err, errors.ErrCodeSceneNotFound) {
		t.Errorf("second delete should be SCENE_NOT_FOUND, got %v", err)
	}
}

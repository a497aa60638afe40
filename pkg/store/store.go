// Package store persists scenes.
//
// Two backends implement the Store interface:
//   - FileStore: one JSON file per scene in a directory, for CLI usage
//   - MongoStore: a MongoDB collection, for server deployments
//
// Both key scenes by their id. Missing scenes map to a SCENE_NOT_FOUND
// error so the HTTP layer can answer 404 without inspecting backends.
package store

import (
	"context"

	"github.com/flowviz/flowviz/pkg/scene"
)

// Store is the interface for scene persistence backends.
type Store interface {
	// Put saves a scene, replacing any existing scene with the same id.
	Put(ctx context.Context, s *scene.Scene) error

	// Get retrieves a scene by id.
	Get(ctx context.Context, id string) (*scene.Scene, error)

	// List returns metadata for all stored scenes, newest first.
	List(ctx context.Context) ([]scene.Info, error)

	// Delete removes a scene by id.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}

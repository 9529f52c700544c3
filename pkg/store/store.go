// Package store provides named scene storage for server mode.
//
// A scene is an uploaded snapshot with a stable identity, so API clients
// can solve and query it repeatedly without re-uploading. Two backends
// implement [Store]:
//   - memory: in-process storage for development and tests
//   - mongo: MongoDB-backed storage for deployments
//
// The core engine never touches this package; persistence stays outside
// the layout boundary.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwkaltz/gravitas/pkg/graph"
)

// Sentinel errors for scene operations.
var (
	// ErrNotFound is returned when a scene does not exist.
	ErrNotFound = errors.New("scene not found")

	// ErrEmptyName is returned when a scene is stored without a name.
	ErrEmptyName = errors.New("scene name must not be empty")
)

// Scene is a stored snapshot with identity and bookkeeping timestamps.
type Scene struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Snapshot  graph.Snapshot `json:"snapshot" bson:"snapshot"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// New creates a scene with a fresh UUID and both timestamps set to now.
func New(name string, snap graph.Snapshot) *Scene {
	now := time.Now().UTC()
	return &Scene{
		ID:        uuid.NewString(),
		Name:      name,
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store is the interface for scene storage backends.
type Store interface {
	// Put stores or replaces a scene by ID, bumping UpdatedAt.
	Put(ctx context.Context, scene *Scene) error

	// Get retrieves a scene by ID. Returns [ErrNotFound] when absent.
	Get(ctx context.Context, id string) (*Scene, error)

	// List returns all scenes sorted by name, snapshots included.
	List(ctx context.Context) ([]*Scene, error)

	// Delete removes a scene. Returns [ErrNotFound] when absent.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jwkaltz/gravitas/pkg/graph"
)

func testSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.SnapshotNode{{ID: "a"}, {ID: "b"}},
		Edges: []graph.SnapshotEdge{{SourceID: "a", TargetID: "b", Weight: 1}},
	}
}

func TestNew_AssignsIdentity(t *testing.T) {
	scene := New("demo", testSnapshot())
	if scene.ID == "" {
		t.Error("New() left ID empty")
	}
	if scene.CreatedAt.IsZero() || scene.UpdatedAt.IsZero() {
		t.Error("New() left timestamps unset")
	}
	if other := New("demo", testSnapshot()); other.ID == scene.ID {
		t.Error("two scenes share an ID")
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	scene := New("demo", testSnapshot())
	if err := s.Put(ctx, scene); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, scene.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "demo" {
		t.Errorf("Name = %q, want %q", got.Name, "demo")
	}
	if len(got.Snapshot.Nodes) != 2 {
		t.Errorf("snapshot has %d nodes, want 2", len(got.Snapshot.Nodes))
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_PutRejectsEmptyName(t *testing.T) {
	s := NewMemoryStore()
	scene := New("", testSnapshot())
	if err := s.Put(context.Background(), scene); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Put(unnamed) error = %v, want ErrEmptyName", err)
	}
}

func TestMemoryStore_PutPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	scene := New("demo", testSnapshot())
	if err := s.Put(ctx, scene); err != nil {
		t.Fatal(err)
	}
	stored, err := s.Get(ctx, scene.ID)
	if err != nil {
		t.Fatal(err)
	}

	scene.Name = "renamed"
	if err := s.Put(ctx, scene); err != nil {
		t.Fatal(err)
	}
	updated, err := s.Get(ctx, scene.ID)
	if err != nil {
		t.Fatal(err)
	}

	if !updated.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v vs %v", updated.CreatedAt, stored.CreatedAt)
	}
	if updated.Name != "renamed" {
		t.Errorf("Name = %q, want %q", updated.Name, "renamed")
	}
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Put(ctx, New(name, testSnapshot())); err != nil {
			t.Fatal(err)
		}
	}

	scenes, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(scenes) != len(want) {
		t.Fatalf("List() returned %d scenes, want %d", len(scenes), len(want))
	}
	for i, name := range want {
		if scenes[i].Name != name {
			t.Errorf("scenes[%d].Name = %q, want %q", i, scenes[i].Name, name)
		}
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	scene := New("demo", testSnapshot())
	if err := s.Put(ctx, scene); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, scene.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, scene.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, scene.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	scene := New("demo", testSnapshot())
	if err := s.Put(ctx, scene); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(ctx, scene.ID)
	got.Name = "mutated"

	again, _ := s.Get(ctx, scene.ID)
	if again.Name != "demo" {
		t.Errorf("store contents mutated through a returned scene: Name = %q", again.Name)
	}
}

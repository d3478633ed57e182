package runs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/milp"
)

func solution(cost float64) *cable.Solution {
	return &cable.Solution{
		Mode:     candidates.ModeReduced,
		Capacity: 4,
		Status:   milp.StatusOptimal,
		Cost:     cost,
		Elapsed:  time.Second,
		Arcs:     []cable.ActiveArc{{From: 1, To: 0, Weight: cost, Flow: 1}},
	}
}

func stores(t *testing.T) map[string]Store {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return map[string]Store{"memory": NewMemoryStore(), "file": fs}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			testStore(t, ctx, s)
		})
	}
}

// TestMongoStore runs against a live server when CABLENET_MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CABLENET_MONGO_URI")
	if uri == "" {
		t.Skip("CABLENET_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "cablenet_test")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()
	defer s.coll.Drop(ctx)
	testStore(t, ctx, s)
}

func testStore(t *testing.T, ctx context.Context, s Store) {
	t.Helper()

	old := New("farm-a", "hash-a", solution(30))
	old.CreatedAt = time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
	recent := New("farm-a", "hash-a", solution(28))
	recent.CreatedAt = old.CreatedAt.Add(30 * time.Minute)
	other := New("farm-b", "hash-b", solution(50))
	other.CreatedAt = old.CreatedAt.Add(10 * time.Minute)

	for _, r := range []*Run{old, recent, other} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Get(ctx, recent.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Cost != 28 || got.Solution == nil || len(got.Solution.Arcs) != 1 {
		t.Errorf("Get = %+v", got)
	}
	if !got.Optimal() {
		t.Error("Optimal() = false for an optimal run")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	all, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != recent.ID || all[2].ID != old.ID {
		t.Fatalf("List order = %v", ids(all))
	}
	if all[0].Solution != nil {
		t.Error("List returned stored solutions")
	}

	byName, _ := s.List(ctx, ListOptions{Instance: "farm-a"})
	byHash, _ := s.List(ctx, ListOptions{Instance: "hash-a"})
	if len(byName) != 2 || len(byHash) != 2 {
		t.Errorf("filtered lists = %v, %v", ids(byName), ids(byHash))
	}

	limited, _ := s.List(ctx, ListOptions{Limit: 1})
	if len(limited) != 1 || limited[0].ID != recent.ID {
		t.Errorf("limited list = %v", ids(limited))
	}

	if err := s.Delete(ctx, old.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted run still present: %v", err)
	}
	if err := s.Delete(ctx, old.ID); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func ids(runs []*Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Instance + "@" + r.CreatedAt.Format(time.TimeOnly)
	}
	return out
}

func TestNew(t *testing.T) {
	r := New("farm", "h", solution(12))
	if len(r.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", r.ID)
	}
	if r.Status != "optimal" || r.Mode != candidates.ModeReduced || r.Seconds != 1 {
		t.Errorf("New = %+v", r)
	}
	if r2 := New("farm", "h", solution(12)); r2.ID == r.ID {
		t.Error("two runs share an ID")
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NullStore{}
	if err := s.Save(ctx, New("x", "y", solution(1))); err != nil {
		t.Errorf("Save: %v", err)
	}
	if _, err := s.Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v", err)
	}
	if runs, err := s.List(ctx, ListOptions{}); err != nil || len(runs) != 0 {
		t.Errorf("List = %v, %v", runs, err)
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := New("farm", "h", solution(5))
	_ = s.Save(ctx, r)
	r.Cost = 99
	got, _ := s.Get(ctx, r.ID)
	if got.Cost != 5 {
		t.Errorf("stored run aliased caller's value: cost %v", got.Cost)
	}
}

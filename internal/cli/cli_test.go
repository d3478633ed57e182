package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/instance"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/runs"
)

// testEnv is a workspace with an instance and a config that keeps the cache
// and the run history inside it.
type testEnv struct {
	dir      string
	config   string
	instance string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:      dir,
		config:   filepath.Join(dir, "config.toml"),
		instance: filepath.Join(dir, "square.json"),
	}
	cfg := fmt.Sprintf("[cache]\ndir = %q\n\n[store]\ndir = %q\n",
		filepath.Join(dir, "cache"), filepath.Join(dir, "runs"))
	if err := os.WriteFile(env.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	inst := instance.New("square",
		[]r2.Vec{{X: 0, Y: 0}},
		[]r2.Vec{{X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
	if err := inst.Save(env.instance); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (*CLI, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", e.config))
	return c, root.ExecuteContext(context.Background())
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"solve", "candidates", "compare", "render", "generate", "runs", "serve", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSolveCommand(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "solve", env.instance, "--capacity", "1", "--exact", "--format", "dot"); err != nil {
		t.Fatalf("solve: %v", err)
	}

	solPath := filepath.Join(env.dir, "square.solution.json")
	sol, err := pkgio.ImportSolution(solPath)
	if err != nil {
		t.Fatalf("solution not written: %v", err)
	}
	if sol.Status != milp.StatusOptimal || sol.Capacity != 1 || len(sol.Arcs) != 3 {
		t.Errorf("solution = %+v", sol)
	}
	dot, err := os.ReadFile(filepath.Join(env.dir, "square.dot"))
	if err != nil || !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("dot output = %q, %v", dot, err)
	}

	store, err := runs.NewFileStore(filepath.Join(env.dir, "runs"))
	if err != nil {
		t.Fatal(err)
	}
	list, err := store.List(context.Background(), runs.ListOptions{Instance: "square"})
	if err != nil || len(list) != 1 {
		t.Fatalf("recorded runs = %v, %v", list, err)
	}

	if _, err := env.run(t, "render", env.instance, "--format", "dot", "--output", filepath.Join(env.dir, "drawn")); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "drawn.dot")); err != nil {
		t.Errorf("render output missing: %v", err)
	}

	if _, err := env.run(t, "runs", "show", list[0].ID); err != nil {
		t.Errorf("runs show: %v", err)
	}
	if _, err := env.run(t, "runs", "list"); err != nil {
		t.Errorf("runs list: %v", err)
	}
	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Errorf("cache clear: %v", err)
	}
}

func TestSolveCommandFlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)
	cfg := "[solve]\ncapacity = 3\nmode = \"full\"\n\n[store]\nbackend = \"none\"\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(env.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "solve", env.instance, "--capacity", "1", "--exact"); err != nil {
		t.Fatalf("solve: %v", err)
	}
	sol, err := pkgio.ImportSolution(filepath.Join(env.dir, "square.solution.json"))
	if err != nil {
		t.Fatal(err)
	}
	if sol.Capacity != 1 || sol.Mode != "full" {
		t.Errorf("capacity = %d mode = %s, want 1 and full", sol.Capacity, sol.Mode)
	}
}

func TestSolveCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing instance", []string{"solve", filepath.Join(env.dir, "nope.json")}},
		{"bad mode", []string{"solve", env.instance, "--mode", "mesh"}},
		{"bad format", []string{"solve", env.instance, "--format", "pdf"}},
		{"no args", []string{"solve"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGenerateAndCompare(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "generated")
	if _, err := env.run(t, "generate", "-n", "6", "--seed", "3", "--min-distance", "100", "-d", out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(out, "instance_6_s3.json")
	in, err := instance.Load(path)
	if err != nil {
		t.Fatalf("generated instance: %v", err)
	}
	if in.NSS != 2 || len(in.Turbines) != 6 {
		t.Errorf("generated %d substations, %d turbines", in.NSS, len(in.Turbines))
	}

	if _, err := env.run(t, "compare", env.instance, "--exact", "--capacity", "2"); err != nil {
		t.Fatalf("compare: %v", err)
	}
}

func TestCandidatesCommand(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "edges.json")
	if _, err := env.run(t, "candidates", env.instance, "--mode", "full", "-o", out); err != nil {
		t.Fatalf("candidates: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || !strings.Contains(string(data), `"Weight"`) {
		t.Errorf("edges file = %s, %v", data, err)
	}
}

func TestConfigFlagMissingFile(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"cache", "path", "--config", filepath.Join(t.TempDir(), "absent.toml")})
	if err := root.Execute(); err == nil {
		t.Error("missing --config file accepted")
	}
}

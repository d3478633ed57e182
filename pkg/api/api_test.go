package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/instance"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/pipeline"
	"github.com/matzehuels/cablenet/pkg/runs"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, runs.NewMemoryStore(), logger)
	srv := httptest.NewServer(NewServer(runner, logger, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func square() *instance.Instance {
	return instance.New("square",
		[]r2.Vec{{X: 0, Y: 0}},
		[]r2.Vec{{X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}})
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if code := do(t, http.MethodGet, srv.URL+"/healthz", nil, &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Status != "ok" || body.Version == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestCandidates(t *testing.T) {
	srv := newTestServer(t)
	var resp CandidatesResponse
	code := do(t, http.MethodPost, srv.URL+"/v1/candidates",
		CandidatesRequest{Instance: square(), Mode: candidates.ModeFull}, &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Mode != candidates.ModeFull || len(resp.Edges) != resp.FullCount || resp.N != 4 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSolveAndRuns(t *testing.T) {
	srv := newTestServer(t)

	var resp SolveResponse
	code := do(t, http.MethodPost, srv.URL+"/v1/solve", map[string]any{
		"instance":   square(),
		"capacity":   1,
		"exact":      true,
		"time_limit": 30,
		"formats":    []string{"dot"},
	}, &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if want := 20 + math.Sqrt(200); math.Abs(resp.Solution.Cost-want) > 1e-6 {
		t.Errorf("cost = %v, want %v", resp.Solution.Cost, want)
	}
	if resp.Solution.Status != milp.StatusOptimal || len(resp.Solution.Arcs) != 3 {
		t.Errorf("solution = %+v", resp.Solution)
	}
	if !strings.HasPrefix(string(resp.Artifacts["dot"]), "digraph") {
		t.Errorf("dot artifact = %q", resp.Artifacts["dot"])
	}
	if resp.RunID == "" {
		t.Fatal("no run id")
	}

	var list []runs.Run
	if code := do(t, http.MethodGet, srv.URL+"/v1/runs?instance=square", nil, &list); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(list) != 1 || list[0].ID != resp.RunID || list[0].Solution != nil {
		t.Errorf("list = %+v", list)
	}

	var run runs.Run
	if code := do(t, http.MethodGet, srv.URL+"/v1/runs/"+resp.RunID, nil, &run); code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	if run.Solution == nil || run.Solution.Cost != resp.Solution.Cost {
		t.Errorf("run = %+v", run)
	}

	if code := do(t, http.MethodDelete, srv.URL+"/v1/runs/"+resp.RunID, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code := do(t, http.MethodGet, srv.URL+"/v1/runs/"+resp.RunID, nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
}

func TestSolveErrors(t *testing.T) {
	srv := newTestServer(t)
	line := instance.New("line", []r2.Vec{{X: 0, Y: 0}}, []r2.Vec{{X: 1, Y: 0}, {X: 2, Y: 0}})

	tests := []struct {
		name string
		body any
		want int
		code string
	}{
		{"malformed", `{"instance":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", `{"colour": "red"}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"no instance", map[string]any{"capacity": 2}, http.StatusUnprocessableEntity, "INVALID_INPUT"},
		{"collinear", map[string]any{"instance": line}, http.StatusUnprocessableEntity, "INPUT_DEGENERATE"},
		{"bad mode", map[string]any{"instance": square(), "mode": "mesh"}, http.StatusUnprocessableEntity, "INVALID_MODE"},
		{"time limit", map[string]any{"instance": square(), "time_limit": 86400}, http.StatusUnprocessableEntity, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			if got := do(t, http.MethodPost, srv.URL+"/v1/solve", tt.body, &resp); got != tt.want {
				t.Errorf("status = %d, want %d (%+v)", got, tt.want, resp)
			}
			if string(resp.Code) != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestTimeLimitCap(t *testing.T) {
	s := NewServer(nil, log.NewWithOptions(io.Discard, log.Options{}), WithMaxTimeLimit(time.Minute))

	tests := []struct {
		seconds float64
		want    time.Duration
		fail    bool
	}{
		{seconds: 0, want: time.Minute},
		{seconds: 30, want: 30 * time.Second},
		{seconds: 60, want: time.Minute},
		{seconds: 61, fail: true},
	}
	for _, tt := range tests {
		got, err := s.timeLimit(tt.seconds)
		if tt.fail {
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("timeLimit(%v) error = %v, want INVALID_INPUT", tt.seconds, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("timeLimit(%v) = %v, %v, want %v", tt.seconds, got, err, tt.want)
		}
	}

	if d, _ := NewServer(nil, nil).timeLimit(0); d != pipeline.DefaultTimeLimit {
		t.Errorf("default server limit = %v, want %v", d, pipeline.DefaultTimeLimit)
	}
}

func TestSolveWithoutTimeLimitUnderCap(t *testing.T) {
	srv := newTestServer(t, WithMaxTimeLimit(time.Minute))

	var resp SolveResponse
	code := do(t, http.MethodPost, srv.URL+"/v1/solve", map[string]any{
		"instance": square(),
		"capacity": 1,
	}, &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Solution.Arcs) != 3 {
		t.Errorf("solution = %+v", resp.Solution)
	}
}

func TestListRunsBadLimit(t *testing.T) {
	srv := newTestServer(t)
	if code := do(t, http.MethodGet, srv.URL+"/v1/runs?limit=-1", nil, nil); code != http.StatusBadRequest {
		t.Errorf("status = %d", code)
	}
}

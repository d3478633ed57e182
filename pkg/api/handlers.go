package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cablenet/pkg/buildinfo"
	"github.com/matzehuels/cablenet/pkg/candidates"
	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/instance"
	pkgio "github.com/matzehuels/cablenet/pkg/io"
	"github.com/matzehuels/cablenet/pkg/pipeline"
	"github.com/matzehuels/cablenet/pkg/runs"
)

// SolveRequest is the body of POST /v1/solve. Options use the same JSON
// names as the CLI flags; time_limit is in seconds.
type SolveRequest struct {
	Instance  *instance.Instance `json:"instance"`
	TimeLimit float64            `json:"time_limit,omitempty"`
	pipeline.Options
}

// SolveResponse is the body returned by POST /v1/solve.
type SolveResponse struct {
	RunID          string            `json:"run_id,omitempty"`
	Instance       string            `json:"instance"`
	InstanceHash   string            `json:"instance_hash"`
	CandidateEdges int               `json:"candidate_edges"`
	Cached         bool              `json:"cached"`
	Solution       *pkgio.Record     `json:"solution"`
	Artifacts      map[string][]byte `json:"artifacts,omitempty"`
}

// CandidatesRequest is the body of POST /v1/candidates.
type CandidatesRequest struct {
	Instance        *instance.Instance `json:"instance"`
	Mode            candidates.Mode    `json:"mode,omitempty"`
	TruncateWeights bool               `json:"truncate_weights,omitempty"`
}

// CandidateEdge is one candidate in a CandidatesResponse.
type CandidateEdge struct {
	U      int     `json:"u"`
	V      int     `json:"v"`
	Weight float64 `json:"weight"`
}

// CandidatesResponse is the body returned by POST /v1/candidates.
type CandidatesResponse struct {
	Mode      candidates.Mode `json:"mode"`
	NSS       int             `json:"n_ss"`
	N         int             `json:"n"`
	FullCount int             `json:"full_count"`
	Edges     []CandidateEdge `json:"edges"`
	Diagonals int             `json:"diagonals"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) candidates(w http.ResponseWriter, r *http.Request) {
	req, err := decode[CandidatesRequest](w, r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	in, err := s.input(req.Instance)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	set, err := s.runner.Candidates(r.Context(), in, pipeline.Options{
		Mode:            req.Mode,
		TruncateWeights: req.TruncateWeights,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := CandidatesResponse{
		Mode:      set.Mode,
		NSS:       set.NSS,
		N:         set.N,
		FullCount: candidates.FullCount(set.N, set.NSS),
		Edges:     make([]CandidateEdge, len(set.Edges)),
		Diagonals: len(set.Diagonals),
	}
	for i, e := range set.Edges {
		resp.Edges[i] = CandidateEdge{U: e.U, V: e.V, Weight: e.Weight}
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decode[SolveRequest](w, r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	in, err := s.input(req.Instance)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts := req.Options
	if opts.TimeLimit, err = s.timeLimit(req.TimeLimit); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.fail(w, r, err)
		return
	}
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(ctx))

	if err := s.solves.Acquire(ctx, 1); err != nil {
		s.fail(w, r, err)
		return
	}
	defer s.solves.Release(1)

	result, err := s.runner.Execute(ctx, in, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, SolveResponse{
		RunID:          result.RunID,
		Instance:       in.Name(),
		InstanceHash:   in.Hash,
		CandidateEdges: result.Stats.CandidateEdges,
		Cached:         result.CacheInfo.SolutionHit,
		Solution:       pkgio.NewRecord(result.Solution),
		Artifacts:      result.Artifacts,
	})
}

// timeLimit converts a requested limit in seconds. An omitted limit gets the
// pipeline default, capped at the server maximum.
func (s *Server) timeLimit(seconds float64) (time.Duration, error) {
	if seconds == 0 {
		return min(pipeline.DefaultTimeLimit, s.maxTimeLimit), nil
	}
	d := time.Duration(seconds * float64(time.Second))
	if d > s.maxTimeLimit {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"time_limit %gs exceeds the server maximum of %s", seconds, s.maxTimeLimit)
	}
	return d, nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	opts := runs.ListOptions{Instance: r.URL.Query().Get("instance")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.badRequest(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		opts.Limit = limit
	}
	list, err := s.runner.Store.List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*runs.Run{}
	}
	respond(w, http.StatusOK, list)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) input(inst *instance.Instance) (*pipeline.Input, error) {
	if inst == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request has no instance")
	}
	return pipeline.NewInput(inst)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	respond(w, http.StatusBadRequest, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

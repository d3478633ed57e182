package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/matzehuels/cablenet/pkg/errors"
	"github.com/matzehuels/cablenet/pkg/runs"
)

const maxBodySize = 8 << 20

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// decode reads a single JSON value from the request body, rejecting unknown
// fields.
func decode[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var data T
	if err := dec.Decode(&data); err != nil {
		return data, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	var trailing struct{}
	if err := dec.Decode(&trailing); err != io.EOF {
		return data, errors.New(errors.ErrCodeInvalidFormat, "request body must contain a single JSON value")
	}
	return data, nil
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	msg := errors.UserMessage(err)
	if errors.GetCode(err) == "" {
		msg = http.StatusText(code)
		if code < http.StatusInternalServerError {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
	}
	respond(w, code, errorResponse{Error: msg, Code: errors.GetCode(err)})
}

func statusFor(err error) int {
	switch {
	case errors.IsInputError(err):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, runs.ErrNotFound), errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, errors.ErrCodeUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

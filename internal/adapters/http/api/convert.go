package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/model"
)

// convertRequest is the body of POST /convert.
type convertRequest struct {
	Caps              map[string]float64 `json:"caps"`
	PassingPercentage json.RawMessage    `json:"passing_percentage"`
}

// regradeRequest is the body of POST /regrade. Caps are fixed by the last
// conversion, so a caps key is an unknown field.
type regradeRequest struct {
	PassingPercentage json.RawMessage `json:"passing_percentage"`
}

// percentage returns nil when the key is absent so the service default
// applies. A present value must be a JSON number; null, strings and other
// values are ErrInvalidThreshold.
func percentage(raw json.RawMessage) (*float64, error) {
	if raw == nil {
		return nil, nil
	}
	var p float64
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &p) != nil {
		return nil, fmt.Errorf("%w: passing_percentage %s is not a number", gate.ErrInvalidThreshold, raw)
	}
	return &p, nil
}

func (c convertRequest) explicit() (caps.Explicit, error) {
	out := make(caps.Explicit, len(c.Caps))
	for name, v := range c.Caps {
		comp, ok := model.ParseComponent(name)
		if !ok {
			return nil, fmt.Errorf("unknown component %q", name)
		}
		out[comp] = v
	}
	return out, nil
}

// decodeBody reads a strict JSON body into v. An empty body is allowed.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err //nolint:wrapcheck // wrapped as ErrBadRequest by the handler
	}
	return nil
}

// HandleConvert handles POST /convert requests.
func (s *Server) HandleConvert(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_convert"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req convertRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	explicit, err := req.explicit()
	if err != nil {
		s.writeServiceError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	pct, err := percentage(req.PassingPercentage)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}

	snap, err := s.deps.Convert(r.Context(), explicit, pct)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(snap))
}

// HandleRegrade handles POST /regrade requests. Only passing_percentage is
// read from the body.
func (s *Server) HandleRegrade(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_regrade"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req regradeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	pct, err := percentage(req.PassingPercentage)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}

	snap, err := s.deps.Regrade(r.Context(), pct)
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(snap))
}

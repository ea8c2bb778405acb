package api

import (
	"net/http"
	"time"

	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/internal/domain/types"
)

// resultView is the display shape of a snapshot.
type resultView struct {
	SessionID         string                `json:"sessionId"`
	Generation        uint64                `json:"generation"`
	Stale             bool                  `json:"stale"`
	LastError         string                `json:"lastError,omitempty"`
	ErrorKind         string                `json:"errorKind,omitempty"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	Caps              map[string]float64    `json:"caps,omitempty"`
	PassingPercentage float64               `json:"passingPercentage,omitempty"`
	CacheHit          bool                  `json:"cacheHit"`
	Stats             *types.Stats          `json:"stats,omitempty"`
	Distribution      map[string]int        `json:"distribution,omitempty"`
	Violations        []caps.Violation      `json:"violations,omitempty"`
	Summary           []types.ColumnSummary `json:"summary,omitempty"`
	First             []types.Row           `json:"first,omitempty"`
	Final             []types.Row           `json:"final,omitempty"`
	Grades            []types.Row           `json:"grades,omitempty"`
}

func newResultView(snap service.Snapshot) resultView {
	v := resultView{
		SessionID:  snap.SessionID,
		Generation: snap.Generation,
		Stale:      snap.Stale,
		LastError:  snap.LastError,
		ErrorKind:  snap.ErrorKind,
		UpdatedAt:  snap.UpdatedAt,
	}
	res := snap.Result
	if res == nil {
		return v
	}

	v.Caps = make(map[string]float64, len(res.Caps))
	for comp, c := range res.Caps {
		v.Caps[model.Component(comp).String()] = c
	}
	v.PassingPercentage = res.PassingPercentage
	v.CacheHit = res.CacheHit
	stats := res.Stats
	v.Stats = &stats
	v.Distribution = make(map[string]int, len(res.Distribution))
	for g, n := range res.Distribution {
		v.Distribution[string(g)] = n
	}
	v.Violations = res.Violations
	v.Summary = res.Summary
	v.First = types.Rows(res.First)
	v.Final = types.Rows(res.Final)
	v.Grades = types.GradedRows(res.Graded)
	return v
}

// HandleResults handles GET /results requests.
func (s *Server) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(s.deps.Snapshot()))
}

package api

import (
	"net/http"

	"github.com/okian/winequality/internal/domain/features"
)

type fieldResponse struct {
	Name    string  `json:"name"`
	Column  string  `json:"column"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Help    string  `json:"help"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
	Group   string  `json:"group"`
}

// HandleFields handles GET /api/v1/fields requests.
func (s *Server) HandleFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	specs := features.Specs()
	out := make([]fieldResponse, len(specs))
	for i, sp := range specs {
		out[i] = fieldResponse{
			Name:    sp.Name,
			Column:  sp.Column,
			Label:   sp.Label,
			Unit:    sp.Unit,
			Help:    sp.Help,
			Min:     sp.Min,
			Max:     sp.Max,
			Default: sp.Default,
			Step:    sp.Step,
			Group:   sp.Group,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

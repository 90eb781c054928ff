package api

import (
	"bytes"
	"net/http"

	"github.com/okian/winequality/internal/bom"
	"github.com/okian/winequality/pkg/logger"
)

const cycloneDXMediaType = "application/vnd.cyclonedx+json; charset=utf-8"

// HandleModel handles GET /api/v1/model requests.
func (s *Server) HandleModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info, ok := s.deps.ModelInfo()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, codeNoModel, ErrNoModel)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleModelBOM handles GET /api/v1/model/bom requests.
func (s *Server) HandleModelBOM(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info, ok := s.deps.ModelInfo()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, codeNoModel, ErrNoModel)
		return
	}
	doc, err := bom.Build(info)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	var buf bytes.Buffer
	if err := bom.Encode(&buf, doc); err != nil {
		s.logger.Error(r.Context(), "failed to encode bom", logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}
	w.Header().Set("Content-Type", cycloneDXMediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

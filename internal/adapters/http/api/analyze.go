package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/winequality/internal/domain/features"
	"github.com/okian/winequality/internal/presenter"
	"github.com/okian/winequality/pkg/logger"
	"golang.org/x/text/language"
)

// analyzeRequest mirrors the OpenAPI schema for POST /api/v1/analyze.
type analyzeRequest struct {
	Features map[string]float64 `json:"features"`
	Lang     string             `json:"lang"`
}

// HandleAnalyzeJSON handles POST /api/v1/analyze. Input problems are 4xx;
// a failed inference is a 200 whose report has status "error".
func (s *Server) HandleAnalyzeJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	raw, err := s.readBody(w, r)
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := s.schema.Validate(doc); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	var req analyzeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	values, err := features.ValuesFromNames(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, inputErrorCode(err), err)
		return
	}
	report, _, err := s.analyze(ctx, values, s.negotiate(req.Lang, r))
	if err != nil {
		writeError(w, http.StatusBadRequest, inputErrorCode(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// analyze runs the pipeline for values and returns the collected vector
// with the report. The error is non-nil only when the
// input was refused; inference failures come back inside the report.
func (s *Server) analyze(ctx context.Context, values features.Values, tag language.Tag) (presenter.Report, features.Vector, error) {
	v, adjustments, err := s.deps.Collect(ctx, values)
	if err != nil {
		return presenter.Report{}, features.Vector{}, err
	}
	out := s.deps.Analyze(ctx, v)
	report := presenter.New(tag).Build(out, v, adjustments)
	if !report.OK() {
		s.logger.Warn(ctx, "analysis reported an error",
			logger.String("id", report.ID),
			logger.String("error", report.Error),
		)
	}
	return report, v, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, mbe.Limit)
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrBadRequest)
	}
	return raw, nil
}

// negotiate prefers an explicit lang over the Accept-Language header.
func (s *Server) negotiate(lang string, r *http.Request) language.Tag {
	if lang != "" {
		return presenter.Negotiate(lang, s.defaultLang)
	}
	return presenter.Negotiate(r.Header.Get("Accept-Language"), s.defaultLang)
}

func inputErrorCode(err error) string {
	switch {
	case errors.Is(err, features.ErrNotFinite):
		return codeNotFinite
	case errors.Is(err, features.ErrOutOfRange):
		return codeOutOfRange
	case errors.Is(err, features.ErrUnknownField):
		return codeUnknownField
	default:
		return codeInvalidRequest
	}
}

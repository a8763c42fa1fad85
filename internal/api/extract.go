// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/extract"
	"github.com/ManuGH/ccore/internal/log"
)

// maxJSONBody bounds the JSON endpoint. Raw-content payloads above this
// belong on the multipart endpoint.
const maxJSONBody = 32 << 20

// extractRequest is the JSON request shape for /api/v1/extract. Exactly one
// of url, file_path and content must be set.
type extractRequest struct {
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Content  string `json:"content,omitempty"`

	MimeType string `json:"mime_type,omitempty"`

	// Engine is shorthand for a single-element engines list.
	Engine  string   `json:"engine,omitempty"`
	Engines []string `json:"engines,omitempty"`

	OutputFormat   string         `json:"output_format,omitempty"`
	Options        map[string]any `json:"options,omitempty"`
	TimeoutSeconds int            `json:"timeout_seconds,omitempty"`

	AudioProvider    string `json:"audio_provider,omitempty"`
	AudioModel       string `json:"audio_model,omitempty"`
	AudioConcurrency int    `json:"audio_concurrency,omitempty"`
}

func (req *extractRequest) source() *content.Source {
	engines := req.Engines
	if len(engines) == 0 && req.Engine != "" {
		engines = []string{req.Engine}
	}
	return &content.Source{
		URL:              req.URL,
		FilePath:         req.FilePath,
		Content:          req.Content,
		MimeType:         req.MimeType,
		Engines:          engines,
		OutputFormat:     req.OutputFormat,
		Options:          req.Options,
		TimeoutSeconds:   req.TimeoutSeconds,
		AudioProvider:    req.AudioProvider,
		AudioModel:       req.AudioModel,
		AudioConcurrency: req.AudioConcurrency,
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req extractRequest
	if err := dec.Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:     "request body exceeds limit",
				Kind:      string(exterr.KindValidation),
				RequestID: log.RequestIDFromContext(r.Context()),
			})
			return
		}
		writeBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	s.runExtraction(w, r, req.source())
}

// runExtraction routes one source against the current config snapshot and
// writes the result or the mapped error.
func (s *Server) runExtraction(w http.ResponseWriter, r *http.Request, src *content.Source) {
	cfg := s.holder.Get()
	rt := extract.NewRouter(&cfg, s.reg)

	result, err := rt.Extract(r.Context(), src)
	if err != nil {
		writeExtractionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

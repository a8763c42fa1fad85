// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
)

// errorResponse is the error envelope for every non-2xx JSON response.
type errorResponse struct {
	Error     string        `json:"error"`
	Kind      string        `json:"kind"`
	RequestID string        `json:"request_id,omitempty"`
	Attempts  []attemptInfo `json:"attempts,omitempty"`
}

// attemptInfo mirrors one engine attempt from a failed chain.
type attemptInfo struct {
	Engine  string `json:"engine"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeExtractionError maps a classified extraction error onto an HTTP
// status and envelope. Chain failures carry the ordered attempt record.
func writeExtractionError(w http.ResponseWriter, r *http.Request, err error) {
	kind := exterr.KindOf(err)
	resp := errorResponse{
		Error:     err.Error(),
		Kind:      string(kind),
		RequestID: log.RequestIDFromContext(r.Context()),
	}

	var chain *exterr.ChainError
	if errors.As(err, &chain) {
		resp.Attempts = make([]attemptInfo, 0, len(chain.Attempts))
		for _, a := range chain.Attempts {
			resp.Attempts = append(resp.Attempts, attemptInfo{
				Engine:  a.Engine,
				Kind:    string(a.Kind),
				Message: a.Message,
			})
		}
	}

	writeJSON(w, statusFor(kind), resp)
}

// writeBadRequest reports a request-shape problem before routing started.
func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     msg,
		Kind:      string(exterr.KindValidation),
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// statusFor translates error kinds into HTTP statuses. Upstream failures
// surface as 502 so clients can tell them from request problems.
func statusFor(kind exterr.Kind) int {
	switch kind {
	case exterr.KindValidation, exterr.KindEngineNotFound:
		return http.StatusBadRequest
	case exterr.KindFileNotFound, exterr.KindNotFound:
		return http.StatusNotFound
	case exterr.KindPermission:
		return http.StatusForbidden
	case exterr.KindUnsupported, exterr.KindNoEngine:
		return http.StatusUnsupportedMediaType
	case exterr.KindParse, exterr.KindEmptyCaptions, exterr.KindCaptionGeneration:
		return http.StatusUnprocessableEntity
	case exterr.KindRateLimit:
		return http.StatusTooManyRequests
	case exterr.KindNetwork, exterr.KindAuth, exterr.KindBlocked, exterr.KindTranscription:
		return http.StatusBadGateway
	case exterr.KindTimeout:
		return http.StatusGatewayTimeout
	case exterr.KindCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

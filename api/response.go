// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/blinklabs-io/tally/reject"
)

const RequestIDHeader = "X-Request-Id"

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	StatusCode int    `json:"status_code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeRejection maps a rejection kind to its HTTP status. Anything that is
// not a rejection is an internal error and its text is not exposed.
func (a *Api) writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	kind := reject.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"path", r.URL.Path,
			"request_id", w.Header().Get(RequestIDHeader),
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    err.Error(),
		Kind:       kind.Label(),
	})
}

func statusForKind(kind reject.Kind) int {
	switch kind {
	case reject.KindValidation:
		return http.StatusBadRequest
	case reject.KindAuthorization:
		return http.StatusForbidden
	case reject.KindNotFound:
		return http.StatusNotFound
	case reject.KindState, reject.KindDuplicate:
		return http.StatusConflict
	case reject.KindInsufficientResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every response with a fresh request id and records
// the request metrics
func (a *Api) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		a.metrics.requests.WithLabelValues(route, http.StatusText(rec.status)).Inc()
		a.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		a.logger.Debug(
			"request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", requestID,
		)
	})
}

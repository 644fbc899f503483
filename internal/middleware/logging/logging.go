/*
 * Copyright 2024 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging wraps the admin HTTP router (/info, /metrics, /healthz,
// /verbosity) with request logging. Device connections correlate their log
// lines on imei via logger.ForDevice; the admin surface has no imei to
// anchor on, so it gets a per-request trace id instead.
package logging

import (
	"context"
	"net/http"
	"time"

	"github.com/nrednav/cuid2"
	"go.uber.org/zap"
)

type traceIDKey struct{}

// statusResponseWriter records the status code the wrapped handler writes,
// for the per-request log line.
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusResponseWriter) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

var (
	log         *zap.Logger
	generate, _ = cuid2.Init(
		cuid2.WithLength(32),
	)
)

// LoggingHandler wraps h, logging one line per completed admin request with
// a generated trace id attached so repeated /verbosity or /info calls from
// the same operator session can be told apart in the log stream.
func LoggingHandler(h http.Handler) http.Handler {
	if h == nil {
		h = http.DefaultServeMux
	}

	log = zap.L()

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		traceID := generate()
		req = req.WithContext(context.WithValue(req.Context(), traceIDKey{}, traceID))
		srw := statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func(start time.Time) {
			log.Info("admin request handled",
				zap.String("trace_id", traceID),
				zap.String("source_addr", req.RemoteAddr),
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.String("proto", req.Proto),
				zap.Int("status", srw.status),
				zap.Float64("elapsed_time_sec", time.Since(start).Seconds()),
			)
		}(time.Now())

		h.ServeHTTP(&srw, req)
	})
}

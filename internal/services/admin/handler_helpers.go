package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/platform/requestctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// statusRecorder captures the response status and the authenticated
// operator for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status    int
	principal requestctx.Principal
}

// principalRecorder receives the operator resolved by requireAuth.
type principalRecorder interface {
	recordPrincipal(requestctx.Principal)
}

func (s *statusRecorder) recordPrincipal(principal requestctx.Principal) {
	s.principal = principal
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(body []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(body)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// withRequestLogging traces and logs every request once it completes.
func (h *Handler) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		userID := rec.principal.UserID
		if userID == "" {
			userID = requestctx.UserIDFromContext(r.Context())
		}
		if userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		h.logger.Info("admin request", fields...)
	})
}

// writeError renders err as a localized plain-text response. Unexpected
// errors are logged and reported as 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, loc *message.Printer, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		trace.SpanFromContext(r.Context()).RecordError(err)
	}
	http.Error(w, loc.Sprintf(code.MessageKey()), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// parseCohortID accepts positive decimal IDs only.
func parseCohortID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

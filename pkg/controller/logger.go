package controller

import (
	"bountywatch/pkg/logger"
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// CtxKey is a string-based type used for storing values in request contexts.
type CtxKey string

const (
	// RequestIDKey is the context key under which the current request ID is stored.
	RequestIDKey CtxKey = "RequestID"

	accessLogKey CtxKey = "AccessLog"
)

// responseRecorder captures the status code and body size written by the
// downstream handler.
type responseRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n

	return n, err
}

// accessLog collects the extra fields handlers attach to the access log line
// of their request.
type accessLog struct {
	mu     sync.Mutex
	fields []zap.Field
}

// AnnotateAccessLog adds fields to the access log line of the request carried
// by ctx, such as the ID and outcome of the run it triggered. It is a no-op
// outside WithLogger.
func AnnotateAccessLog(ctx context.Context, fields ...zap.Field) {
	al, ok := ctx.Value(accessLogKey).(*accessLog)
	if !ok {
		return
	}
	al.mu.Lock()
	al.fields = append(al.fields, fields...)
	al.mu.Unlock()
}

// GetClientIP returns the originating client address: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection's remote host.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// WithLogger tags every request with an ID (taken from X-Request-Id or
// generated), echoes it back, scopes the context logger to it and writes one
// access log line once the handler returns. Handlers extend that line with
// AnnotateAccessLog.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		al := &accessLog{}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, accessLogKey, al)
		ctx = logger.WithFields(ctx, zap.String(string(RequestIDKey), requestID))

		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		al.mu.Lock()
		fields := append([]zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status_code", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Float64("latency", time.Since(start).Seconds()),
			zap.String("client_ip", GetClientIP(r)),
			zap.String("user_agent", r.UserAgent()),
		}, al.fields...)
		al.mu.Unlock()

		logger.Info(ctx, "Access log", fields...)
	})
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// loggingMiddleware logs every tool call under a fresh call_id.
func loggingMiddleware(logger *slog.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			l := logger.With("call_id", uuid.NewString(), "tool", req.Params.Name)
			l.Debug("tool call started")

			res, err := next(ctx, req)

			elapsed := time.Since(start)
			switch {
			case err != nil:
				l.Warn("tool call rejected", "duration", elapsed, "error", err)
			case res != nil && res.IsError:
				l.Info("tool call failed", "duration", elapsed)
			default:
				l.Info("tool call completed", "duration", elapsed)
			}
			return res, err
		}
	}
}

// requestLogger logs HTTP requests. The wrapped writer keeps http.Flusher
// so event streams still flush.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr)
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitledger/pkg/logging"
)

// RequestIDHeader carries the correlation ID in requests and responses.
const RequestIDHeader = "X-Request-Id"

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It assigns a request ID (reusing the caller's X-Request-Id when present),
// stores it in the context for downstream logs, echoes it in the response,
// and logs the procedure name, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			requestID := req.Header().Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = logging.WithRequestID(ctx, requestID)

			resp, err := next(ctx, req)

			duration := time.Since(start).Milliseconds()
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					connectErr.Meta().Set(RequestIDHeader, requestID)
					slog.WarnContext(ctx, "RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"duration_ms", duration,
					)
				} else {
					slog.ErrorContext(ctx, "RPC error",
						"procedure", procedure,
						"error", err,
						"duration_ms", duration,
					)
				}
			} else {
				resp.Header().Set(RequestIDHeader, requestID)
				slog.InfoContext(ctx, "RPC ok",
					"procedure", procedure,
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}

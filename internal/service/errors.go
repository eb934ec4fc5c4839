package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	validator "github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/pkg/metrics"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks the struct tags of a request message.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return connect.NewError(connect.CodeInvalidArgument,
				apperr.Validation("invalid %s: failed %q check", fe.Namespace(), fe.Tag()))
		}
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError maps an application error to its Connect code. Errors
// without a kind come from storage and are reported as retryable, except
// context errors, which keep their own codes.
func toConnectError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		slog.InfoContext(ctx, op+" canceled", "error", err)
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(ctx, op+" timed out", "error", err)
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		slog.InfoContext(ctx, op+" rejected", "error", err)
		return connect.NewError(connect.CodeInvalidArgument, err)
	case apperr.KindNotFound:
		slog.InfoContext(ctx, op+" rejected", "error", err)
		return connect.NewError(connect.CodeNotFound, err)
	case apperr.KindConflict:
		slog.InfoContext(ctx, op+" rejected", "error", err)
		return connect.NewError(connect.CodeAlreadyExists, err)
	case apperr.KindPrecondition:
		slog.InfoContext(ctx, op+" rejected", "error", err)
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case apperr.KindInvariant:
		slog.ErrorContext(ctx, op+" hit an invariant violation", "error", err)
		metrics.RecordSplitInvariantViolation()
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	default:
		slog.ErrorContext(ctx, op+" failed", "error", err)
		return connect.NewError(connect.CodeUnavailable, err)
	}
}

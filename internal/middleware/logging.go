package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/godutch/pkg/api"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC with
// its session, duration and outcome. Mutating calls also log what they
// touched and the step the session ended in.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"session_id", GetSessionID(ctx), // empty if the session interceptor runs later
			}
			attrs = append(attrs, requestAttrs(req.Any())...)

			resp, err := next(ctx, req)
			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					slog.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				} else {
					slog.Error("RPC error", append(attrs, "error", err)...)
				}
				return resp, err
			}

			if resp != nil {
				attrs = append(attrs, responseAttrs(resp.Any())...)
			}
			slog.Info("RPC ok", attrs...)
			return resp, nil
		}
	}
}

func requestAttrs(msg any) []any {
	switch m := msg.(type) {
	case *api.ToggleAssignmentRequest:
		return []any{"charge_id", m.ChargeID, "participant_id", m.ParticipantID}
	case *api.SubmitParticipantsRequest:
		return []any{"names", len(m.Names)}
	case *api.SettleUpRequest:
		return []any{"payer_id", m.PayerID}
	}
	return nil
}

func responseAttrs(msg any) []any {
	switch m := msg.(type) {
	case *api.SessionView:
		return []any{"step", m.Step}
	case *api.CreateSessionResponse:
		return []any{"new_session_id", m.SessionID}
	case *api.SettleUpResponse:
		return []any{"transfers", len(m.Transfers)}
	}
	return nil
}

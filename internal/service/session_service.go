package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/session"
	"github.com/mmynk/godutch/internal/storage"
	"github.com/mmynk/godutch/pkg/api"
	"github.com/mmynk/godutch/pkg/api/apiconnect"
)

var errNoSession = errors.New("request is not bound to a session")

// Ensure SessionService implements the Connect handler interface
var _ apiconnect.SessionServiceHandler = (*SessionService)(nil)

// SessionService implements the Connect SessionService.
//
// Every state change is a load-mutate-save cycle under one mutex, so two
// toggles on the same session can never interleave.
type SessionService struct {
	store      storage.Store
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics

	mu sync.Mutex
}

// NewSessionService creates a new SessionService with the given storage backend.
func NewSessionService(store storage.Store, jwtManager *auth.JWTManager, m *metrics.Metrics) *SessionService {
	return &SessionService{
		store:      store,
		jwtManager: jwtManager,
		metrics:    m,
	}
}

// CreateSession starts a new split and returns a token bound to it.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error) {
	sess := session.New(uuid.NewString())
	if err := s.store.CreateSession(ctx, sess); err != nil {
		slog.Error("CreateSession failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(sess.ID)
	if err != nil {
		slog.Error("Failed to generate token", "session_id", sess.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.metrics.SessionsCreated.Inc()
	slog.Info("Session created", "session_id", sess.ID)

	return connect.NewResponse(&api.CreateSessionResponse{
		SessionID: sess.ID,
		Token:     token,
		Session:   newSessionView(sess),
	}), nil
}

// GetSession returns the current state of the caller's session.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionView], error) {
	sessionID := middleware.GetSessionID(ctx)
	if sessionID == "" {
		return nil, toConnectError(errNoSession)
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	view := newSessionView(sess)
	return connect.NewResponse(&view), nil
}

// SubmitParticipants records the participant names and moves to assignments.
func (s *SessionService) SubmitParticipants(ctx context.Context, req *connect.Request[api.SubmitParticipantsRequest]) (*connect.Response[api.SessionView], error) {
	sess, err := s.mutate(ctx, middleware.GetSessionID(ctx), func(sess *models.Session) error {
		return session.SubmitNames(sess, req.Msg.Names)
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Participants submitted", "session_id", sess.ID, "count", len(sess.Participants))
	view := newSessionView(sess)
	return connect.NewResponse(&view), nil
}

// ToggleAssignment flips one participant's membership on one charge.
func (s *SessionService) ToggleAssignment(ctx context.Context, req *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.SessionView], error) {
	sess, err := s.mutate(ctx, middleware.GetSessionID(ctx), func(sess *models.Session) error {
		return session.Toggle(sess, req.Msg.ChargeID, req.Msg.ParticipantID)
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	s.metrics.Toggles.Inc()
	slog.Debug("Assignment toggled",
		"session_id", sess.ID,
		"charge_id", req.Msg.ChargeID,
		"participant_id", req.Msg.ParticipantID,
	)
	view := newSessionView(sess)
	return connect.NewResponse(&view), nil
}

// BackToUpload discards the receipt so a new one can be uploaded.
func (s *SessionService) BackToUpload(ctx context.Context, req *connect.Request[api.BackToUploadRequest]) (*connect.Response[api.SessionView], error) {
	sess, err := s.mutate(ctx, middleware.GetSessionID(ctx), func(sess *models.Session) error {
		session.BackToUpload(sess)
		return nil
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	view := newSessionView(sess)
	return connect.NewResponse(&view), nil
}

// SettleUp lists who owes the payer how much.
func (s *SessionService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	sessionID := middleware.GetSessionID(ctx)
	if sessionID == "" {
		return nil, toConnectError(errNoSession)
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if sess.Step != models.StepAssignments {
		return nil, toConnectError(fmt.Errorf("%w: settle up during %s", session.ErrWrongStep, sess.Step))
	}

	transfers, err := calculator.SettleUp(session.PersonCosts(sess), req.Msg.PayerID)
	if err != nil {
		return nil, toConnectError(err)
	}

	symbol := currencySymbol(sess.Receipt)
	resp := &api.SettleUpResponse{Transfers: make([]api.Transfer, len(transfers))}
	for i, t := range transfers {
		resp.Transfers[i] = api.Transfer{
			From:            t.From,
			To:              t.To,
			Amount:          t.Amount,
			FormattedAmount: calculator.FormatMoney(symbol, t.Amount),
		}
	}
	s.metrics.Settlements.Inc()
	return connect.NewResponse(resp), nil
}

// mutate loads a session, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	if sessionID == "" {
		return nil, errNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return sess, nil
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, errNoSession):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrUnknownCharge),
		errors.Is(err, calculator.ErrUnknownParticipant),
		errors.Is(err, session.ErrNoParticipants),
		errors.Is(err, session.ErrReceiptUnreadable):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, session.ErrWrongStep),
		errors.Is(err, session.ErrNoReceipt):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		slog.Error("Unexpected error", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Package apiconnect wires the godutch.v1.SessionService onto connect
// handlers and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/godutch/pkg/api"
)

// SessionServiceName is the fully-qualified name of the SessionService service.
const SessionServiceName = "godutch.v1.SessionService"

// Procedure paths.
const (
	SessionServiceCreateSessionProcedure      = "/godutch.v1.SessionService/CreateSession"
	SessionServiceGetSessionProcedure         = "/godutch.v1.SessionService/GetSession"
	SessionServiceSubmitParticipantsProcedure = "/godutch.v1.SessionService/SubmitParticipants"
	SessionServiceToggleAssignmentProcedure   = "/godutch.v1.SessionService/ToggleAssignment"
	SessionServiceBackToUploadProcedure       = "/godutch.v1.SessionService/BackToUpload"
	SessionServiceSettleUpProcedure           = "/godutch.v1.SessionService/SettleUp"
)

// SessionServiceHandler is implemented by the server.
type SessionServiceHandler interface {
	CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error)
	GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionView], error)
	SubmitParticipants(context.Context, *connect.Request[api.SubmitParticipantsRequest]) (*connect.Response[api.SessionView], error)
	ToggleAssignment(context.Context, *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.SessionView], error)
	BackToUpload(context.Context, *connect.Request[api.BackToUploadRequest]) (*connect.Response[api.SessionView], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. The JSON codec is always installed.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	handlers := map[string]http.Handler{
		SessionServiceCreateSessionProcedure:      connect.NewUnaryHandler(SessionServiceCreateSessionProcedure, svc.CreateSession, opts...),
		SessionServiceGetSessionProcedure:         connect.NewUnaryHandler(SessionServiceGetSessionProcedure, svc.GetSession, opts...),
		SessionServiceSubmitParticipantsProcedure: connect.NewUnaryHandler(SessionServiceSubmitParticipantsProcedure, svc.SubmitParticipants, opts...),
		SessionServiceToggleAssignmentProcedure:   connect.NewUnaryHandler(SessionServiceToggleAssignmentProcedure, svc.ToggleAssignment, opts...),
		SessionServiceBackToUploadProcedure:       connect.NewUnaryHandler(SessionServiceBackToUploadProcedure, svc.BackToUpload, opts...),
		SessionServiceSettleUpProcedure:           connect.NewUnaryHandler(SessionServiceSettleUpProcedure, svc.SettleUp, opts...),
	}
	return "/" + SessionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// SessionServiceClient is a client for the godutch.v1.SessionService service.
type SessionServiceClient struct {
	createSession      *connect.Client[api.CreateSessionRequest, api.CreateSessionResponse]
	getSession         *connect.Client[api.GetSessionRequest, api.SessionView]
	submitParticipants *connect.Client[api.SubmitParticipantsRequest, api.SessionView]
	toggleAssignment   *connect.Client[api.ToggleAssignmentRequest, api.SessionView]
	backToUpload       *connect.Client[api.BackToUploadRequest, api.SessionView]
	settleUp           *connect.Client[api.SettleUpRequest, api.SettleUpResponse]
}

// NewSessionServiceClient constructs a client for the service at baseURL.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &SessionServiceClient{
		createSession:      connect.NewClient[api.CreateSessionRequest, api.CreateSessionResponse](httpClient, baseURL+SessionServiceCreateSessionProcedure, opts...),
		getSession:         connect.NewClient[api.GetSessionRequest, api.SessionView](httpClient, baseURL+SessionServiceGetSessionProcedure, opts...),
		submitParticipants: connect.NewClient[api.SubmitParticipantsRequest, api.SessionView](httpClient, baseURL+SessionServiceSubmitParticipantsProcedure, opts...),
		toggleAssignment:   connect.NewClient[api.ToggleAssignmentRequest, api.SessionView](httpClient, baseURL+SessionServiceToggleAssignmentProcedure, opts...),
		backToUpload:       connect.NewClient[api.BackToUploadRequest, api.SessionView](httpClient, baseURL+SessionServiceBackToUploadProcedure, opts...),
		settleUp:           connect.NewClient[api.SettleUpRequest, api.SettleUpResponse](httpClient, baseURL+SessionServiceSettleUpProcedure, opts...),
	}
}

func (c *SessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionView], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) SubmitParticipants(ctx context.Context, req *connect.Request[api.SubmitParticipantsRequest]) (*connect.Response[api.SessionView], error) {
	return c.submitParticipants.CallUnary(ctx, req)
}

func (c *SessionServiceClient) ToggleAssignment(ctx context.Context, req *connect.Request[api.ToggleAssignmentRequest]) (*connect.Response[api.SessionView], error) {
	return c.toggleAssignment.CallUnary(ctx, req)
}

func (c *SessionServiceClient) BackToUpload(ctx context.Context, req *connect.Request[api.BackToUploadRequest]) (*connect.Response[api.SessionView], error) {
	return c.backToUpload.CallUnary(ctx, req)
}

func (c *SessionServiceClient) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/scanning"
	"github.com/mmynk/godutch/internal/storage/sqlite"
	"github.com/mmynk/godutch/pkg/api"
	"github.com/mmynk/godutch/pkg/api/apiconnect"
)

// failingScanner always fails, like a model that is down.
type failingScanner struct{}

func (failingScanner) Name() string { return "failing" }
func (failingScanner) ScanReceipt(context.Context, []byte, string) (*models.ReceiptAnalysisResult, error) {
	return nil, errors.New("connection refused")
}
func (failingScanner) Close() error { return nil }

func coffeeReceipt() models.ReceiptAnalysisResult {
	return models.ReceiptAnalysisResult{
		Items: []models.ReceiptItem{{Name: "Coffee", Quantity: 1, Price: 10}},
		AdditionalCosts: []models.AdditionalCost{
			{Name: "Tax", Amount: 2, AdditionalCost: true},
			{Name: "GST included", Amount: 0.9, AdditionalCost: false},
		},
		TotalPrice: 12,
		Currency:   "USD",
	}
}

type testEnv struct {
	client   *apiconnect.SessionServiceClient
	server   *httptest.Server
	sessions *SessionService
	jwt      *auth.JWTManager
	metrics  *metrics.Metrics
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T, scanner scanning.Scanner) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New(prometheus.NewRegistry())

	sessions := NewSessionService(store, jwtManager, m)
	path, handler := apiconnect.NewSessionServiceHandler(sessions,
		connect.WithInterceptors(
			middleware.RequireSession(jwtManager, apiconnect.SessionServiceCreateSessionProcedure),
			middleware.LoggingInterceptor(),
		),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	receipts := NewReceiptHandler(sessions, scanner, m, 0)
	mux.Handle(ReceiptProcessPath, middleware.OptionalSession(jwtManager, receipts.RejectToken)(receipts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		client:   apiconnect.NewSessionServiceClient(http.DefaultClient, server.URL),
		server:   server,
		sessions: sessions,
		jwt:      jwtManager,
		metrics:  m,
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	resp, err := e.client.CreateSession(context.Background(), connect.NewRequest(&api.CreateSessionRequest{}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return resp.Msg.Token
}

// receiptForm builds a multipart body with a fake image under field.
// An empty field yields a form without any file.
func receiptForm(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "receipt.png")
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write([]byte("fake-image-bytes"))
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

// postReceipt sends a prepared receipt form and decodes the envelope. It
// does not touch t, so it can run in its own goroutine.
func (e *testEnv) postReceipt(token string, body io.Reader, contentType string) (int, models.ProcessingResponse, error) {
	var envelope models.ProcessingResponse

	req, err := http.NewRequest(http.MethodPost, e.server.URL+ReceiptProcessPath, body)
	if err != nil {
		return 0, envelope, err
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, envelope, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return resp.StatusCode, envelope, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, envelope, nil
}

// upload posts a receipt image under field and decodes the envelope.
func (e *testEnv) upload(t *testing.T, token, field string) (int, models.ProcessingResponse) {
	t.Helper()

	body, contentType := receiptForm(t, field)
	status, envelope, err := e.postReceipt(token, body, contentType)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return status, envelope
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}

func TestSessionFlow(t *testing.T) {
	env := setupTestServer(t, scanning.NewStubWithResult(0, coffeeReceipt()))
	ctx := context.Background()

	created, err := env.client.CreateSession(ctx, connect.NewRequest(&api.CreateSessionRequest{}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Msg.SessionID == "" || created.Msg.Token == "" {
		t.Fatalf("expected session ID and token, got %+v", created.Msg)
	}
	if created.Msg.Session.Step != models.StepUpload {
		t.Errorf("expected upload step, got %s", created.Msg.Session.Step)
	}
	token := created.Msg.Token

	status, envelope := env.upload(t, token, "image")
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("upload failed: %d %+v", status, envelope.Error)
	}
	if envelope.Data == nil || envelope.Data.TotalPrice != 12 {
		t.Fatalf("unexpected receipt data: %+v", envelope.Data)
	}

	view, err := env.client.GetSession(ctx, withToken(&api.GetSessionRequest{}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if view.Msg.Step != models.StepNames || view.Msg.Loading {
		t.Errorf("expected names step, not loading; got %s loading=%v", view.Msg.Step, view.Msg.Loading)
	}
	if view.Msg.Receipt == nil {
		t.Fatal("expected receipt on session")
	}

	view, err = env.client.SubmitParticipants(ctx, withToken(&api.SubmitParticipantsRequest{
		Names: []string{"Alice", " Bob "},
	}, token))
	if err != nil {
		t.Fatalf("SubmitParticipants failed: %v", err)
	}
	if view.Msg.Step != models.StepAssignments {
		t.Errorf("expected assignments step, got %s", view.Msg.Step)
	}
	if len(view.Msg.Charges) != 2 {
		t.Fatalf("expected 2 charges, got %d", len(view.Msg.Charges))
	}
	if view.Msg.Charges[1].ID != "additional-cost-0" || len(view.Msg.Charges[1].AssignedTo) != 2 {
		t.Errorf("flagged cost should default to everyone: %+v", view.Msg.Charges[1])
	}
	if len(view.Msg.InformationalCosts) != 1 {
		t.Errorf("expected 1 informational cost, got %d", len(view.Msg.InformationalCosts))
	}
	if !view.Msg.UnclaimedVisible || view.Msg.FormattedUnclaimed != "$10.00" {
		t.Errorf("expected $10.00 unclaimed, got %v %q", view.Msg.UnclaimedVisible, view.Msg.FormattedUnclaimed)
	}

	view, err = env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{
		ChargeID:      "item-0",
		ParticipantID: "person-0",
	}, token))
	if err != nil {
		t.Fatalf("ToggleAssignment failed: %v", err)
	}
	if view.Msg.UnclaimedVisible {
		t.Errorf("expected nothing unclaimed, got %f", view.Msg.Unclaimed)
	}
	if got := view.Msg.PersonCosts[0].FormattedAmount; got != "$11.00" {
		t.Errorf("Alice: expected $11.00, got %s", got)
	}
	if got := view.Msg.PersonCosts[1].FormattedAmount; got != "$1.00" {
		t.Errorf("Bob: expected $1.00, got %s", got)
	}

	settled, err := env.client.SettleUp(ctx, withToken(&api.SettleUpRequest{PayerID: "person-0"}, token))
	if err != nil {
		t.Fatalf("SettleUp failed: %v", err)
	}
	if len(settled.Msg.Transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(settled.Msg.Transfers))
	}
	transfer := settled.Msg.Transfers[0]
	if transfer.From != "person-1" || transfer.To != "person-0" || transfer.FormattedAmount != "$1.00" {
		t.Errorf("unexpected transfer: %+v", transfer)
	}

	view, err = env.client.BackToUpload(ctx, withToken(&api.BackToUploadRequest{}, token))
	if err != nil {
		t.Fatalf("BackToUpload failed: %v", err)
	}
	if view.Msg.Step != models.StepUpload || view.Msg.Receipt != nil || len(view.Msg.Assignments) != 0 {
		t.Errorf("expected clean upload step, got %+v", view.Msg)
	}
	if len(view.Msg.Participants) != 2 {
		t.Errorf("expected participants to survive, got %d", len(view.Msg.Participants))
	}
}

func TestSessionService_Errors(t *testing.T) {
	env := setupTestServer(t, scanning.NewStubWithResult(0, coffeeReceipt()))
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		_, err := env.client.GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("unknown session", func(t *testing.T) {
		token, err := env.jwt.Generate("no-such-session")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		_, err = env.client.GetSession(ctx, withToken(&api.GetSessionRequest{}, token))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("names before receipt", func(t *testing.T) {
		token := env.createSession(t)
		_, err := env.client.SubmitParticipants(ctx, withToken(&api.SubmitParticipantsRequest{Names: []string{"Alice"}}, token))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("toggle before names", func(t *testing.T) {
		token := env.createSession(t)
		_, err := env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{ChargeID: "item-0", ParticipantID: "person-0"}, token))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("settle before names", func(t *testing.T) {
		token := env.createSession(t)
		_, err := env.client.SettleUp(ctx, withToken(&api.SettleUpRequest{PayerID: "person-0"}, token))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})

	t.Run("bad references", func(t *testing.T) {
		token := env.createSession(t)
		if status, _ := env.upload(t, token, "image"); status != http.StatusOK {
			t.Fatalf("upload failed with status %d", status)
		}

		_, err := env.client.SubmitParticipants(ctx, withToken(&api.SubmitParticipantsRequest{Names: []string{"  "}}, token))
		assertCode(t, err, connect.CodeInvalidArgument)

		if _, err := env.client.SubmitParticipants(ctx, withToken(&api.SubmitParticipantsRequest{Names: []string{"Alice"}}, token)); err != nil {
			t.Fatalf("SubmitParticipants failed: %v", err)
		}

		_, err = env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{ChargeID: "item-9", ParticipantID: "person-0"}, token))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{ChargeID: "additional-cost-1", ParticipantID: "person-0"}, token))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{ChargeID: "item-0", ParticipantID: "person-3"}, token))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = env.client.SettleUp(ctx, withToken(&api.SettleUpRequest{PayerID: "nobody"}, token))
		assertCode(t, err, connect.CodeInvalidArgument)

		// Failed toggles leave the session untouched.
		view, err := env.client.GetSession(ctx, withToken(&api.GetSessionRequest{}, token))
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if len(view.Msg.Charges[0].AssignedTo) != 0 {
			t.Errorf("expected item-0 unassigned, got %v", view.Msg.Charges[0].AssignedTo)
		}
	})
}

func TestToggleAssignment_Concurrent(t *testing.T) {
	env := setupTestServer(t, scanning.NewStubWithResult(0, coffeeReceipt()))
	ctx := context.Background()

	token := env.createSession(t)
	if status, _ := env.upload(t, token, "image"); status != http.StatusOK {
		t.Fatalf("upload failed with status %d", status)
	}
	names := []string{"A", "B", "C", "D", "E", "F"}
	if _, err := env.client.SubmitParticipants(ctx, withToken(&api.SubmitParticipantsRequest{Names: names}, token)); err != nil {
		t.Fatalf("SubmitParticipants failed: %v", err)
	}

	// Each participant joins item-0 once; no toggle may be lost.
	errs := make(chan error, len(names))
	for i := range names {
		go func(i int) {
			_, err := env.client.ToggleAssignment(ctx, withToken(&api.ToggleAssignmentRequest{
				ChargeID:      "item-0",
				ParticipantID: fmt.Sprintf("person-%d", i),
			}, token))
			errs <- err
		}(i)
	}
	for range names {
		if err := <-errs; err != nil {
			t.Fatalf("ToggleAssignment failed: %v", err)
		}
	}

	view, err := env.client.GetSession(ctx, withToken(&api.GetSessionRequest{}, token))
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got := len(view.Msg.Charges[0].AssignedTo); got != len(names) {
		t.Errorf("expected %d assignees, got %d", len(names), got)
	}
}

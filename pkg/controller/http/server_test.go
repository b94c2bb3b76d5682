package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	server "github.com/wardops-lab/lifeline/pkg/controller/http"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/engine"
	"github.com/wardops-lab/lifeline/pkg/repository"
	"github.com/wardops-lab/lifeline/pkg/service/roster"
	"github.com/wardops-lab/lifeline/pkg/usecase"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

type silentNotifier struct{}

func (silentNotifier) Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*interfaces.DeliveryReport, error) {
	return &interfaces.DeliveryReport{Channel: "silent", Delivered: len(recipients), SentAt: clock.Now(ctx)}, nil
}

type testServer struct {
	srv  *server.Server
	repo *repository.Memory
	fake *clock.Fake
	ctx  context.Context
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	fake := clock.NewFake(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	ctx := clock.With(context.Background(), fake.Now)
	repo := repository.NewMemory()
	gt.NoError(t, repo.PutStaff(ctx, staff.Staff{
		ID: "rn-1", Name: "Asha Patel", Role: types.RoleNurse, HospitalID: "h-1", OnDuty: true,
	}))

	eng := engine.New(repo, roster.New(repo), silentNotifier{},
		engine.DefaultPolicyTable().Duration,
		engine.WithScheduler(fake))
	t.Cleanup(eng.Stop)

	uc := usecase.New(repo, eng)
	return &testServer{
		srv:  server.New(uc),
		repo: repo,
		fake: fake,
		ctx:  ctx,
	}
}

func (ts *testServer) request(t *testing.T, method, path string, body any, role, user, hospital string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(ts.ctx)
	if user != "" {
		req.Header.Set("X-Lifeline-User", user)
		req.Header.Set("X-Lifeline-Role", role)
		req.Header.Set("X-Lifeline-Hospital", hospital)
	}

	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createAlert(t *testing.T) *alert.Alert {
	t.Helper()

	rec := ts.request(t, http.MethodPost, "/api/alerts",
		alert.CreateInput{RoomNumber: "301", Type: types.AlertTypeCodeBlue, Urgency: 1},
		"operator", "op-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusCreated)

	var a alert.Alert
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	return &a
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/health", nil, "", "", "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/api/alerts", nil, "", "", "")
	gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
}

func TestCreateAndGetAlert(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAlert(t)
	gt.Value(t, a.Status).Equal(types.AlertStatusActive)
	gt.Value(t, a.CurrentTier).Equal(1)

	rec := ts.request(t, http.MethodGet, "/api/alerts/"+a.ID.String(), nil, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var got alert.Alert
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	gt.Value(t, got.ID).Equal(a.ID)
}

func TestCreateAlertForbiddenForNurse(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/alerts",
		alert.CreateInput{RoomNumber: "301", Type: types.AlertTypeFall, Urgency: 2},
		"nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusForbidden)
}

func TestCreateAlertRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/alerts",
		alert.CreateInput{RoomNumber: "", Type: types.AlertTypeFall, Urgency: 2},
		"operator", "op-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestAcknowledgeFlow(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAlert(t)

	rec := ts.request(t, http.MethodPost, "/api/alerts/"+a.ID.String()+"/ack",
		map[string]string{"note": "responding"}, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var got alert.Alert
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	gt.Value(t, got.Status).Equal(types.AlertStatusAcknowledged)
	gt.Value(t, got.AcknowledgedBy).Equal(types.UserID("rn-1"))
	gt.Value(t, got.AcknowledgedNote).Equal("responding")
}

func TestResolveConflictAfterResolve(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAlert(t)

	rec := ts.request(t, http.MethodPost, "/api/alerts/"+a.ID.String()+"/resolve",
		map[string]string{"outcome": "handled"}, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = ts.request(t, http.MethodPost, "/api/alerts/"+a.ID.String()+"/resolve",
		map[string]string{"outcome": "handled"}, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusConflict)
}

func TestGetAlertNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/api/alerts/"+types.NewAlertID().String(), nil, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestEscalateAndListEvents(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createAlert(t)

	rec := ts.request(t, http.MethodPost, "/api/alerts/"+a.ID.String()+"/escalate", nil, "head_doctor", "hd-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = ts.request(t, http.MethodGet, "/api/alerts/"+a.ID.String()+"/events", nil, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var events []alert.EscalationEvent
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Reason).Equal(types.EscalationReasonManual)
}

func TestListActiveAlertsScopedByHospital(t *testing.T) {
	ts := newTestServer(t)
	ts.createAlert(t)

	rec := ts.request(t, http.MethodGet, "/api/alerts", nil, "nurse", "rn-9", "h-2")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	var alerts []alert.Alert
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	gt.Array(t, alerts).Length(0)
}

func TestSetStaffDuty(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPut, "/api/staff/rn-1/duty",
		map[string]bool{"on_duty": false}, "admin", "adm-1", "")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var s staff.Staff
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	gt.False(t, s.OnDuty)

	rec = ts.request(t, http.MethodPut, "/api/staff/rn-1/duty",
		map[string]bool{"on_duty": true}, "nurse", "rn-1", "h-1")
	gt.Value(t, rec.Code).Equal(http.StatusForbidden)
}

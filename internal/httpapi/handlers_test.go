package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realty-crm/internal/audit"
	"realty-crm/internal/auth"
	"realty-crm/internal/calls"
	"realty-crm/internal/campaigns"
	"realty-crm/internal/outcome"
	"realty-crm/internal/rbac"
	"realty-crm/internal/reporting"

	"github.com/gin-gonic/gin"
)

type fakeDialer struct {
	deployed    []campaigns.DeployRequest
	classified  []string
	classifyErr error
}

func (f *fakeDialer) Deploy(ctx context.Context, req campaigns.DeployRequest) ([]campaigns.ContactResult, error) {
	f.deployed = append(f.deployed, req)
	out := make([]campaigns.ContactResult, 0, len(req.Contacts))
	for i, c := range req.Contacts {
		r := campaigns.ContactResult{Contact: c, State: campaigns.StateInitiated, CallID: "call-" + c.Phone}
		if i > 0 {
			r = campaigns.ContactResult{Contact: c, State: campaigns.StateFailed, Error: "boom"}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeDialer) ClassifyNow(ctx context.Context, id string) (calls.Completion, error) {
	f.classified = append(f.classified, id)
	if f.classifyErr != nil {
		return calls.Completion{}, f.classifyErr
	}
	return calls.Completion{Outcome: "No appointment scheduled", LeadStage: outcome.StageCold}, nil
}

type testEnv struct {
	router *gin.Engine
	dialer *fakeDialer
	events *audit.MemoryRepo
}

func newTestEnv(t *testing.T, role string) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	appt := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)
	records := calls.NewMemoryRepo(calls.Record{
		ID: "r1", ExternalCallID: "call-1", CampaignID: "camp-1", PhoneNumber: "+15551234567",
		Status: calls.StatusCompleted, LeadStage: outcome.StageHot, AppointmentAt: &appt,
		CreatedAt: appt.Add(-24 * time.Hour),
	})
	events := audit.NewMemoryRepo()
	dialer := &fakeDialer{}
	h := Handlers{
		Campaigns:     campaigns.NewMemoryRepo(campaigns.Campaign{ID: "camp-1", Type: "Solicit Buyers", Status: campaigns.StatusDraft}),
		Dialer:        dialer,
		Calls:         records,
		Reports:       reporting.NewService(records),
		Events:        audit.NewService(events),
		WebhookSecret: "s3cret",
		Now:           func() time.Time { return appt.Add(-time.Hour) },
	}

	r := gin.New()
	r.POST("/webhooks/voice/completed", h.VoiceCallCompleted)
	v1 := r.Group("/v1")
	v1.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u1", role))
		c.Next()
	})
	v1.POST("/campaigns/:campaign_id/deploy", rbac.RequireDialer(), h.DeployCampaign)
	v1.GET("/campaigns/:campaign_id/summary", h.CampaignSummary)
	v1.GET("/campaigns/:campaign_id/events", h.CampaignEvents)
	v1.GET("/calls/:call_id", h.GetCall)
	v1.POST("/calls/:call_id/classify", rbac.RequireDialer(), h.ClassifyCall)
	v1.GET("/appointments", h.ListAppointments)
	v1.GET("/me", h.Me)
	return testEnv{router: r, dialer: dialer, events: events}
}

func (e testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestDeployCampaign(t *testing.T) {
	env := newTestEnv(t, rbac.RoleAgent)

	w := env.do(http.MethodPost, "/v1/campaigns/camp-1/deploy", `{"contacts":[{"name":"Jane","phone":"+15551234567"},{"name":"Bob","phone":"+15550000000"}]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp deployResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Initiated != 1 || resp.Failed != 1 || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(env.dialer.deployed) != 1 || env.dialer.deployed[0].ActorUserID != "u1" || env.dialer.deployed[0].Campaign.Type != "Solicit Buyers" {
		t.Fatalf("unexpected deploy request: %+v", env.dialer.deployed)
	}
}

func TestDeployCampaign_Validation(t *testing.T) {
	env := newTestEnv(t, rbac.RoleAgent)

	if w := env.do(http.MethodPost, "/v1/campaigns/nope/deploy", `{"contacts":[{"phone":"+1"}]}`, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/v1/campaigns/camp-1/deploy", `{"contacts":[]}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/v1/campaigns/camp-1/deploy", `{"contacts":[{"name":"Jane"}]}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing phone, got %d", w.Code)
	}
	if len(env.dialer.deployed) != 0 {
		t.Fatalf("expected no deployment")
	}
}

func TestDeployCampaign_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t, rbac.RoleViewer)
	if w := env.do(http.MethodPost, "/v1/campaigns/camp-1/deploy", `{"contacts":[{"phone":"+1"}]}`, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestClassifyCall(t *testing.T) {
	env := newTestEnv(t, rbac.RoleAdmin)

	w := env.do(http.MethodPost, "/v1/calls/call-1/classify", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.dialer.classified) != 1 || env.dialer.classified[0] != "call-1" {
		t.Fatalf("unexpected classify calls: %v", env.dialer.classified)
	}
	evs := env.events.Events()
	if len(evs) != 1 || evs[0].Type != audit.EventReclassifyRequested || evs[0].CampaignID != "camp-1" {
		t.Fatalf("expected reclassify event, got %+v", evs)
	}
}

func TestClassifyCall_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{campaigns.ErrClassificationInProgress, http.StatusAccepted},
		{calls.ErrNotFound, http.StatusNotFound},
		{errors.New("transcript fetch: status 500"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		env := newTestEnv(t, rbac.RoleAgent)
		env.dialer.classifyErr = tc.err
		if w := env.do(http.MethodPost, "/v1/calls/call-1/classify", "", nil); w.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestVoiceCallCompleted_Secret(t *testing.T) {
	env := newTestEnv(t, rbac.RoleAgent)

	if w := env.do(http.MethodPost, "/webhooks/voice/completed", `{"call_id":"call-1"}`, map[string]string{WebhookSecretHeader: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/webhooks/voice/completed", `{}`, map[string]string{WebhookSecretHeader: "s3cret"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(env.dialer.classified) != 0 {
		t.Fatalf("expected no classification")
	}

	w := env.do(http.MethodPost, "/webhooks/voice/completed", `{"call_id":"call-1","status":"completed"}`, map[string]string{WebhookSecretHeader: "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(env.dialer.classified) != 1 {
		t.Fatalf("expected one classification")
	}
}

func TestGetCallAndSummary(t *testing.T) {
	env := newTestEnv(t, rbac.RoleViewer)

	if w := env.do(http.MethodGet, "/v1/calls/call-1", "", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"lead_stage":"Hot"`) {
		t.Fatalf("unexpected call response %d: %s", w.Code, w.Body.String())
	}
	if w := env.do(http.MethodGet, "/v1/calls/missing", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w := env.do(http.MethodGet, "/v1/campaigns/camp-1/summary", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sum reporting.CampaignSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.TotalCalls != 1 || sum.ConversionRate != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestListAppointments(t *testing.T) {
	env := newTestEnv(t, rbac.RoleViewer)

	w := env.do(http.MethodGet, "/v1/appointments", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"call_id":"call-1"`) {
		t.Fatalf("expected default window to include the appointment, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/v1/appointments?from=2026-10-17T00:00:00Z&to=2026-10-18T00:00:00Z", "", nil)
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "call-1") {
		t.Fatalf("expected empty window, got %d: %s", w.Code, w.Body.String())
	}

	if w := env.do(http.MethodGet, "/v1/appointments?from=tomorrow", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, rbac.RoleAgent)
	w := env.do(http.MethodGet, "/v1/me", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"role":"agent"`) {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"smartpermit/internal/config"
	"smartpermit/internal/db"
	"smartpermit/internal/domain"
	"smartpermit/internal/engine"
	"smartpermit/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("site-1")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	if _, err := e.InitSite(context.Background(), cfg.Site.ID, "", "tester"); err != nil {
		t.Fatalf("init site: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: AuthConfig{
		JWTSecret:              "test-secret",
		AllowLegacyActorHeader: true,
	}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "tester")
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func createJMTViaAPI(t *testing.T, srv *testServer, body map[string]any) JMTResponse {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts", body, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create jmt status %d: %s", res.StatusCode, string(data))
	}
	var created JMTResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal jmt: %v", err)
	}
	return created
}

func TestCreateJMTStrictGate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts", map[string]any{
		"strict": true,
		"title":  "Incomplet",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	if !strings.Contains(string(data), "missing required fields") {
		t.Fatalf("unexpected error body: %s", string(data))
	}
}

func TestCreateJMTGeneratesTitleAndForcesPending(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	created := createJMTViaAPI(t, srv, map[string]any{"zone": "Tour A"})
	if created.Title == "" || !strings.Contains(created.Title, "Tour A") {
		t.Fatalf("generated title = %q", created.Title)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
}

func TestDetectionRecomputedServerSide(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	// Client-supplied detection is discarded: electrical work with a
	// height hazard must come back flagged.
	created := createJMTViaAPI(t, srv, map[string]any{
		"title": "Eclairage",
		"type":  domain.TypeElectrical,
		"method_form": map[string]any{
			"env_hazards": []string{"Travail en hauteur"},
			"detection":   map[string]any{"working_at_height": false},
		},
	})
	if created.MethodForm == nil || !created.MethodForm.Detection.WorkingAtHeight {
		t.Fatalf("detection not recomputed: %+v", created.MethodForm)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	created := createJMTViaAPI(t, srv, map[string]any{"title": "A rejeter"})
	sup := map[string]string{"X-Actor-Id": "sup-1", "X-Role": domain.RoleSupervisor}

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts/"+created.ID+"/reject", map[string]any{}, sup)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without comment, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts/"+created.ID+"/reject", map[string]any{
		"comments": "analyse incomplète",
	}, sup)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reject status %d: %s", res.StatusCode, string(data))
	}
	var rejected JMTResponse
	_ = json.Unmarshal(data, &rejected)
	if rejected.Status != domain.StatusRejected {
		t.Fatalf("status = %q, want rejected", rejected.Status)
	}
	if rejected.Comments == nil || *rejected.Comments != "analyse incomplète" {
		t.Fatalf("comments = %v", rejected.Comments)
	}
}

func TestWorkerCannotApproveOverAPI(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	created := createJMTViaAPI(t, srv, map[string]any{"title": "Protégé"})

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts/"+created.ID+"/approve", map[string]any{}, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for worker, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/jmts/"+created.ID+"/approve", map[string]any{},
		map[string]string{"X-Actor-Id": "dir-1", "X-Role": domain.RoleDirector})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("director approve status %d: %s", res.StatusCode, string(data))
	}
	var approved JMTResponse
	_ = json.Unmarshal(data, &approved)
	if approved.Director == nil || approved.Supervisor != nil {
		t.Fatalf("wrong approval slot: %+v", approved)
	}
}

func TestValidationViewPerRole(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	pending := createJMTViaAPI(t, srv, map[string]any{"title": "pending", "risk_level": domain.RiskLow})
	approvedHigh := createJMTViaAPI(t, srv, map[string]any{"title": "approved high", "risk_level": domain.RiskHigh})
	sup := map[string]string{"X-Actor-Id": "sup-1", "X-Role": domain.RoleSupervisor}
	if res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/jmts/"+approvedHigh.ID+"/approve", map[string]any{}, sup); res.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d %s", res.StatusCode, string(data))
	}

	list := func(headers map[string]string) []JMTResponse {
		t.Helper()
		res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/jmts?view=validation", nil, headers)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("list status %d: %s", res.StatusCode, string(data))
		}
		var items []JMTResponse
		if err := json.Unmarshal(data, &items); err != nil {
			t.Fatalf("unmarshal list: %v", err)
		}
		return items
	}

	supItems := list(sup)
	if len(supItems) != 1 || supItems[0].ID != pending.ID {
		t.Fatalf("supervisor validation view: %+v", supItems)
	}
	dirItems := list(map[string]string{"X-Actor-Id": "dir-1", "X-Role": domain.RoleDirector})
	if len(dirItems) != 2 {
		t.Fatalf("director validation view: %+v", dirItems)
	}
	workerItems := list(nil)
	if len(workerItems) != 0 {
		t.Fatalf("worker validation view should be empty: %+v", workerItems)
	}
}

func TestDetectEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/detect", map[string]any{
		"type":        domain.TypeConfined,
		"env_hazards": []string{"Risque de chute en hauteur"},
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("detect status %d: %s", res.StatusCode, string(data))
	}
	var det domain.Detection
	if err := json.Unmarshal(data, &det); err != nil {
		t.Fatalf("unmarshal detection: %v", err)
	}
	if !det.WorkingAtHeight || len(det.SuggestedPermits) == 0 {
		t.Fatalf("detection = %+v", det)
	}
}

func TestPermitDraftFromJMT(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	created := createJMTViaAPI(t, srv, map[string]any{
		"title":       "Antenne",
		"zone":        "Toit B",
		"description": "Inspection",
	})

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/jmts/"+created.ID+"/permit-draft", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("draft status %d: %s", res.StatusCode, string(data))
	}
	var draft PermitDraftResponse
	if err := json.Unmarshal(data, &draft); err != nil {
		t.Fatalf("unmarshal draft: %v", err)
	}
	if draft.JMTID != created.ID || draft.Place != "Toit B" {
		t.Fatalf("draft = %+v", draft)
	}
}

func TestJMTDocumentDownload(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	created := createJMTViaAPI(t, srv, map[string]any{"title": "Document", "zone": "Tour A"})

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/jmts/"+created.ID+"/document", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("document status %d: %s", res.StatusCode, string(data))
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.Contains(string(data), "Document") {
		t.Fatalf("document body missing title")
	}
}

func TestUnauthorizedWithoutCredentials(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v0/jmts", nil)
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	// health stays open
	hres, err := srv.Client().Get(srv.URL + "/v0/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer hres.Body.Close()
	if hres.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", hres.StatusCode)
	}
}

func TestDevLoginIssuesBearerToken(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v0/auth/dev/login",
		bytes.NewReader([]byte(`{"actor_id":"dev-1","role":"supervisor"}`)))
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(data))
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if out["token"] == "" || out["role"] != domain.RoleSupervisor {
		t.Fatalf("login response: %v", out)
	}

	res2, data2 := doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil,
		map[string]string{"Authorization": "Bearer " + out["token"], "X-Actor-Id": ""})
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res2.StatusCode, string(data2))
	}
	var me map[string]string
	_ = json.Unmarshal(data2, &me)
	if me["actor_id"] != "dev-1" || me["role"] != domain.RoleSupervisor {
		t.Fatalf("me = %v", me)
	}
}

func TestNotificationLifecycleOverAPI(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	createJMTViaAPI(t, srv, map[string]any{"title": "Notifiante"})

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications?unread=true", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list notifications %d: %s", res.StatusCode, string(data))
	}
	var notifs []NotificationResponse
	if err := json.Unmarshal(data, &notifs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(notifs))
	}

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/v0/notifications/"+notifs[0].ID+"/read", nil, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("read status %d", res.StatusCode)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications?unread=true", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("relist %d", res.StatusCode)
	}
	notifs = nil
	_ = json.Unmarshal(data, &notifs)
	if len(notifs) != 0 {
		t.Fatalf("expected none unread, got %d", len(notifs))
	}
}

func TestCatalogEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/catalogs/zones/values", map[string]any{
		"value": "Mezzanine",
	}, nil)
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		t.Fatalf("add value status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/catalogs/zones", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get catalog %d: %s", res.StatusCode, string(data))
	}
	if !strings.Contains(string(data), "Mezzanine") {
		t.Fatalf("catalog missing new value: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/catalogs/bogus/values", map[string]any{
		"value": "x",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown catalog, got %d: %s", res.StatusCode, string(data))
	}
}

func TestCatalogOptionsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	// Seeded epi_complete holds Casque, Gants, Harnais and Chaussures S3.
	res, data := doJSON(t, client, http.MethodGet,
		srv.URL+"/v0/catalogs/epi_complete/options?selected=casque", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("options status %d: %s", res.StatusCode, string(data))
	}
	var body struct {
		Values    []string `json:"values"`
		CanCreate bool     `json:"can_create"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(body.Values) != 3 {
		t.Fatalf("values = %v, want the 3 unselected values", body.Values)
	}
	for _, v := range body.Values {
		if v == "Casque" {
			t.Fatalf("selected value still offered: %v", body.Values)
		}
	}
	if body.CanCreate {
		t.Fatalf("empty query must not offer creation")
	}

	res, data = doJSON(t, client, http.MethodGet,
		srv.URL+"/v0/catalogs/epi_complete/options?q=Gilet", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("options status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Values) != 0 || !body.CanCreate {
		t.Fatalf("unknown query: values=%v can_create=%v", body.Values, body.CanCreate)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/catalogs/bogus/options", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown catalog, got %d: %s", res.StatusCode, string(data))
	}
}

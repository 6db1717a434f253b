package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hellosecurity/riversos/chat"
	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/dbopen"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *soc.Store, *learning.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	learnStore := learning.NewStore(dbopen.OpenMemory(t))
	require.NoError(t, learnStore.Init())
	engine := learning.NewEngine(learnStore, learning.Config{}, logger)

	socStore := soc.NewStore(dbopen.OpenMemory(t))
	require.NoError(t, socStore.Init())

	dash := dashboard.New(dashboard.Config{}, socStore, engine, logger)
	session := chat.NewSession(chat.Config{}, engine, socStore, dash, nil, nil, logger)

	srv := httptest.NewServer(NewServer(cfg, engine, socStore, dash, session, logger).Router())
	t.Cleanup(srv.Close)
	return srv, socStore, engine
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func postJSON(t *testing.T, url, body string, v any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestIndexServesPage(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Digital vCISO")
}

// WHAT: /api/chat routes the message through the shared session and returns
// the rendered response.
func TestChatEndpoint(t *testing.T) {
	srv, _, engine := newTestServer(t, Config{})

	var body map[string]string
	resp := postJSON(t, srv.URL+"/api/chat", `{"message":"advice"}`, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["response"], "Adaptive vCISO Recommendations")
	assert.NotEmpty(t, body["timestamp"])

	// WHY: web conversations must feed the same learning loop as the
	// console, so the advice command's grant has to land.
	rec, err := engine.Store().GetExpertise(context.Background(), learning.DomainIncidentResponse)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 8, rec.ExperiencePoints)
}

func TestChatEndpointValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	var body map[string]string
	resp := postJSON(t, srv.URL+"/api/chat", `{"message":"  "}`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "message is required", body["error"])

	resp = postJSON(t, srv.URL+"/api/chat", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSOCDataEndpoint(t *testing.T) {
	srv, socStore, _ := newTestServer(t, Config{})

	_, err := socStore.CreateAlert(context.Background(), "c2_traffic", soc.SeverityHigh, "ThreatFox", "beacon")
	require.NoError(t, err)

	var body map[string]int
	resp := getJSON(t, srv.URL+"/api/soc-data", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, body["active_alerts"])
	assert.Equal(t, 0, body["open_incidents"])
}

func TestAdvisoryEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})

	var body map[string]string
	resp := postJSON(t, srv.URL+"/api/advisory", `{"topic":"compliance"}`, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["guidance"], "COMPLIANCE FRAMEWORK GUIDANCE")

	resp = postJSON(t, srv.URL+"/api/advisory", `{"topic":""}`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLearningProgressEndpoint(t *testing.T) {
	srv, _, engine := newTestServer(t, Config{})

	var cold map[string]any
	getJSON(t, srv.URL+"/api/learning-progress", &cold)
	assert.Equal(t, "Initializing", cold["status"])

	engine.GrantExperience(context.Background(), learning.DomainThreatIntelligence, 10)

	var warm map[string]any
	getJSON(t, srv.URL+"/api/learning-progress", &warm)
	assert.Equal(t, "Learning", warm["status"])
	assert.Equal(t, float64(1), warm["domains_active"])
}

// WHAT: when Basic Auth is configured, /api/* requires credentials while
// the health check stays open.
func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	srv, _, _ := newTestServer(t, Config{
		BasicAuthUser: "ciso",
		BasicAuthHash: string(hash),
	})

	resp := getJSON(t, srv.URL+"/api/soc-data", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/soc-data", nil)
	require.NoError(t, err)
	req.SetBasicAuth("ciso", "hunter2")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)

	req.SetBasicAuth("ciso", "wrong")
	denied, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer denied.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)
}

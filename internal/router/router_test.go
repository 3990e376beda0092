package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/analysis"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/forest"
	"github.com/stemsi/surveylab/internal/handler"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	"github.com/stemsi/surveylab/internal/simulation"
	"github.com/stemsi/surveylab/internal/validator"
	ws "github.com/stemsi/surveylab/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data       json.RawMessage      `json:"data"`
	Error      *response.ErrorBody  `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestRouterWithBurst(t, 5)
}

func newTestRouterWithBurst(t *testing.T, burst int) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		GinMode:          gin.TestMode,
		SessionBackend:   config.SessionBackendMemory,
		JWTSecret:        "test-secret",
		SessionTTL:       time.Hour,
		Credentials:      map[string]string{"user1": "password123", "user2": "mypassword"},
		Participants:     1000,
		PipelineInterval: time.Hour,
		PipelineBurst:    burst,
	}
	log := zerolog.Nop()

	sessions := repository.NewMemorySessionRepository(cfg.SessionTTL)
	fc := forest.DefaultConfig()
	fc.Trees = 4
	fc.MaxDepth = 3
	pipeline := analysis.NewPipeline(analysis.NewRecommender(fc))
	sims := func() *simulation.Simulator { return simulation.NewSeeded(1, cfg.Participants) }

	authService := service.NewAuthService(cfg, sessions, log)
	wizardService := service.NewWizardService(sessions, nil, pipeline, sims, log)
	reportService := service.NewReportService(nil)

	limiter := middleware.NewPipelineLimiter(cfg.PipelineInterval, cfg.PipelineBurst)

	return SetupRouter(Deps{
		AuthService: authService,
		Sessions:    sessions,
		Limiter:     limiter,
		Log:         log,
	}, &Handlers{
		Auth:   handler.NewAuthHandler(authService, wizardService),
		Wizard: handler.NewWizardHandler(wizardService),
		Survey: handler.NewSurveyHandler(wizardService),
		Report: handler.NewReportHandler(reportService),
		WS:     handler.NewWSHandler(wizardService, limiter, log, nil),
		System: handler.NewSystemHandler(cfg, nil, nil),
	}, cfg)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "user1", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	code, env := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "user1", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrInvalidCredentials, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "user1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "password")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	code, env := do(t, r, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrTokenRequired, env.Error.Code)
}

func TestWizardFlow(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	code, env := do(t, r, http.MethodPost, "/api/v1/wizard/select", token, gin.H{"survey_id": "s1"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrNoSurveys, env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/wizard/create", token, gin.H{"survey_id": "s1"})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/title", token, gin.H{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrBlankInput, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/description", token, gin.H{"description": "early"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrInvalidStep, env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/wizard/title", token, gin.H{"title": "Button Color Test"})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodPost, "/api/v1/wizard/description", token, gin.H{"description": "test"})
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/deploy", token, gin.H{"variations": "Red,Blue", "save": false})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, response.ErrNoVariations, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/deploy", token, gin.H{"variations": "Red,Blue", "save": true, "channel": "Website"})
	require.Equal(t, http.StatusOK, code, string(env.Data))

	var out model.WizardResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotNil(t, out.Report)
	assert.Equal(t, model.StepAnalysis, out.Session.CurrentStep)
	assert.Equal(t, 1000, out.Report.Participants)
	assert.Contains(t, []string{"Red", "Blue"}, out.Report.BestVariation)
	require.NotNil(t, out.Survey)
	assert.Equal(t, []string{"Red", "Blue", out.Report.OptimizedVariation}, out.Survey.Variations)
	assert.Equal(t, model.ChannelWebsite, out.Survey.Deployment.Channel)

	code, env = do(t, r, http.MethodGet, "/api/v1/surveys", token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []model.SurveySummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1000, list[0].Participants)
	assert.True(t, list[0].Analyzed)

	code, env = do(t, r, http.MethodGet, "/api/v1/surveys/s1/report", token, nil)
	require.Equal(t, http.StatusOK, code)
	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, out.Report.BestVariation, report.BestVariation)
	total := 0.0
	for _, v := range report.Dashboard.CompletionCounts.Values {
		total += v
	}
	assert.Equal(t, 1000.0, total)

	code, env = do(t, r, http.MethodGet, "/api/v1/surveys/zzz", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrSurveyNotFound, env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/wizard/restart", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/create", token, gin.H{"survey_id": "s1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrSurveyExists, env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/wizard/select", token, gin.H{"survey_id": "s1"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "s1", out.Session.SelectedSurvey)
}

func TestReportHistory_ArchiveDisabled(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)
	code, env := do(t, r, http.MethodGet, "/api/v1/reports/history", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrArchiveDisabled, env.Error.Code)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	code, _ := do(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, r, http.MethodGet, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrSessionNotFound, env.Error.Code)
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWizard(t *testing.T, srv *httptest.Server, token string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/wizard?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(req ws.WizardRequest) map[string]json.RawMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(req))
	var out map[string]json.RawMessage
	require.NoError(c.t, c.conn.ReadJSON(&out))
	return out
}

func (c *wsClient) event(m map[string]json.RawMessage) string {
	c.t.Helper()
	var e string
	require.NoError(c.t, json.Unmarshal(m["event"], &e))
	return e
}

func (c *wsClient) code(m map[string]json.RawMessage) response.ErrCode {
	c.t.Helper()
	var code response.ErrCode
	require.NoError(c.t, json.Unmarshal(m["code"], &code))
	return code
}

func TestWizardWebSocket(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	client := dialWizard(t, srv, token)
	send, event := client.send, client.event

	assert.Equal(t, "pong", event(send(ws.WizardRequest{Action: ws.ActionPing})))
	assert.Equal(t, "state", event(send(ws.WizardRequest{Action: ws.ActionCreate, SurveyID: "s1"})))

	out := send(ws.WizardRequest{Action: ws.ActionTitle, Text: ""})
	assert.Equal(t, "error", event(out))
	assert.Contains(t, string(out["code"]), string(response.ErrBlankInput))

	assert.Equal(t, "state", event(send(ws.WizardRequest{Action: ws.ActionTitle, Text: "Button Color Test"})))
	assert.Equal(t, "state", event(send(ws.WizardRequest{Action: ws.ActionDescription, Text: "test"})))

	out = send(ws.WizardRequest{Action: ws.ActionDeploy, Variations: "Red,Blue", Save: true})
	require.Equal(t, "report", event(out))
	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(out["report"], &report))
	assert.Equal(t, 1000, report.Participants)

	out = send(ws.WizardRequest{Action: ws.ActionState})
	assert.Equal(t, "state", event(out))
	assert.Contains(t, string(out["session"]), `"current_step":"analysis"`)

	out = send(ws.WizardRequest{Action: "dance"})
	assert.Equal(t, "error", event(out))
}

func TestWizardWebSocket_RequiresToken(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/wizard"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWizardWebSocket_RejectsUnofferedChannel(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialWizard(t, srv, token)
	c.send(ws.WizardRequest{Action: ws.ActionCreate, SurveyID: "s1"})
	c.send(ws.WizardRequest{Action: ws.ActionTitle, Text: "T"})
	c.send(ws.WizardRequest{Action: ws.ActionDescription, Text: "D"})

	out := c.send(ws.WizardRequest{Action: ws.ActionDeploy, Variations: "A,B", Save: true, Audience: "Martians", Channel: "Carrier pigeon"})
	assert.Equal(t, "error", c.event(out))
	assert.Equal(t, response.ErrValidation, c.code(out))

	out = c.send(ws.WizardRequest{Action: ws.ActionState})
	assert.Contains(t, string(out["session"]), `"current_step":"variations"`)
}

func TestWizardWebSocket_PipelineRateLimited(t *testing.T) {
	r := newTestRouterWithBurst(t, 1)
	token := login(t, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := dialWizard(t, srv, token)
	c.send(ws.WizardRequest{Action: ws.ActionCreate, SurveyID: "s1"})
	c.send(ws.WizardRequest{Action: ws.ActionTitle, Text: "T"})
	c.send(ws.WizardRequest{Action: ws.ActionDescription, Text: "D"})
	require.Equal(t, "report", c.event(c.send(ws.WizardRequest{Action: ws.ActionDeploy, Variations: "A,B", Save: true})))

	out := c.send(ws.WizardRequest{Action: ws.ActionReanalyze})
	assert.Equal(t, "error", c.event(out))
	assert.Equal(t, response.ErrRateLimited, c.code(out))

	// A second connection and the REST route draw from the same bucket.
	other := dialWizard(t, srv, token)
	out = other.send(ws.WizardRequest{Action: ws.ActionReanalyze})
	assert.Equal(t, response.ErrRateLimited, other.code(out))

	code, env := do(t, r, http.MethodPost, "/api/v1/wizard/reanalyze", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, response.ErrRateLimited, env.Error.Code)

	// Non-pipeline actions are not throttled.
	assert.Equal(t, "state", c.event(c.send(ws.WizardRequest{Action: ws.ActionRestart})))
}

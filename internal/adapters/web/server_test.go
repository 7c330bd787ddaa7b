package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatwatch-io/threatwatch/internal/adapters/web"
	"github.com/threatwatch-io/threatwatch/internal/adapters/web/websocket"
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/core/services/analysis"
	"github.com/threatwatch-io/threatwatch/internal/core/services/auth"
	"github.com/threatwatch-io/threatwatch/internal/core/services/recompute"
	"github.com/threatwatch-io/threatwatch/internal/core/services/risk"
)

// In-memory fakes shared by the route tests.

type memThreatRepo struct {
	mu      sync.Mutex
	threats map[string]domain.Threat
}

func newMemThreatRepo() *memThreatRepo {
	return &memThreatRepo{threats: make(map[string]domain.Threat)}
}

func (m *memThreatRepo) GetByID(ctx context.Context, threatID string) (*domain.Threat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threats[threatID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memThreatRepo) GetByCVE(ctx context.Context, cveID string) (*domain.Threat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.threats {
		if t.CVEID == cveID {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memThreatRepo) List(ctx context.Context) ([]domain.Threat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Threat, 0, len(m.threats))
	for _, t := range m.threats {
		out = append(out, t)
	}
	return out, nil
}

func (m *memThreatRepo) UpsertThreat(ctx context.Context, threat domain.Threat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threats[threat.ID] = threat
	return nil
}

func (m *memThreatRepo) UpdateSyncStatus(ctx context.Context, status ports.FeedSyncStatus) error {
	return nil
}

func (m *memThreatRepo) GetSyncStatus(ctx context.Context, feedName string) (*ports.FeedSyncStatus, error) {
	return nil, nil
}

func (m *memThreatRepo) GetTotalCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threats), nil
}

func (m *memThreatRepo) Close() error { return nil }

type memInventory struct {
	mu     sync.Mutex
	assets map[string]domain.Asset
	pirs   map[string]domain.PIR
}

func newMemInventory() *memInventory {
	return &memInventory{assets: make(map[string]domain.Asset), pirs: make(map[string]domain.PIR)}
}

func (m *memInventory) GetAsset(ctx context.Context, assetID string) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memInventory) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, a)
	}
	return out, nil
}

func (m *memInventory) GetAssetsByIDs(ctx context.Context, assetIDs []string) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Asset
	for _, id := range assetIDs {
		if a, ok := m.assets[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memInventory) SaveAsset(ctx context.Context, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.ID] = asset
	return nil
}

func (m *memInventory) ListEnabledPIRs(ctx context.Context) ([]domain.PIR, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PIR
	for _, p := range m.pirs {
		if p.IsEnabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memInventory) ListPIRs(ctx context.Context) ([]domain.PIR, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PIR, 0, len(m.pirs))
	for _, p := range m.pirs {
		out = append(out, p)
	}
	return out, nil
}

func (m *memInventory) SavePIR(ctx context.Context, pir domain.PIR) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pirs[pir.ID] = pir
	return nil
}

type memResults struct {
	mu           sync.Mutex
	associations map[string]domain.AssociationResult // keyed by association ID
	assessments  map[string]domain.RiskAssessment    // keyed by threatID+associationID
}

func newMemResults() *memResults {
	return &memResults{
		associations: make(map[string]domain.AssociationResult),
		assessments:  make(map[string]domain.RiskAssessment),
	}
}

func (m *memResults) UpsertAssociation(ctx context.Context, result domain.AssociationResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := result.ThreatID + ":" + result.AssetID
	m.associations[id] = result
	return id, nil
}

func (m *memResults) GetAssociationsByThreat(ctx context.Context, threatID string) ([]domain.AssociationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AssociationResult
	for _, r := range m.associations {
		if r.ThreatID == threatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) DeleteAssociationsByThreat(ctx context.Context, threatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.associations {
		if r.ThreatID == threatID {
			delete(m.associations, id)
		}
	}
	return nil
}

func (m *memResults) UpsertAssessment(ctx context.Context, assessment domain.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[assessment.ThreatID+":"+assessment.AssociationID] = assessment
	return nil
}

func (m *memResults) GetAssessmentsByThreat(ctx context.Context, threatID string) ([]domain.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RiskAssessment
	for _, a := range m.assessments {
		if a.ThreatID == threatID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (m *memUserRepo) Save(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]domain.User)
	}
	m.users[user.Username] = user
	return nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &u, nil
}

type testEnv struct {
	server  *web.Server
	handler http.Handler
	threats *memThreatRepo
	inv     *memInventory
	results *memResults
}

// setupServer builds the full route table over in-memory stores, with one
// analyst account ready to log in.
func setupServer(t *testing.T) *testEnv {
	t.Helper()

	threats := newMemThreatRepo()
	inv := newMemInventory()
	results := newMemResults()

	authService := auth.NewService(&memUserRepo{})
	err := authService.CreateUser(context.Background(), domain.User{
		Username: "analyst",
		Role:     domain.RoleAnalyst,
	}, "hunter2hunter2")
	require.NoError(t, err)

	pipeline := recompute.NewService(recompute.Config{
		Threats:      threats,
		Assets:       inv,
		PIRs:         inv,
		Analyzer:     analysis.NewService(),
		Risk:         risk.NewService(),
		Associations: results,
		Assessments:  results,
	})

	srv := web.NewServer(":0", web.Deps{
		AuthService:  authService,
		Threats:      threats,
		Assets:       inv,
		PIRs:         inv,
		Associations: results,
		Assessments:  results,
		Pipeline:     pipeline,
		Hub:          websocket.NewHub(),
	})

	return &testEnv{
		server:  srv,
		handler: web.SetupRoutes(srv),
		threats: threats,
		inv:     inv,
		results: results,
	}
}

// login runs the real login flow and returns the session token.
func login(t *testing.T, env *testEnv) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": "analyst", "password": "hunter2hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func authedRequest(method, target, token string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRoutesRequireAuth(t *testing.T) {
	env := setupServer(t)

	for _, target := range []string{"/api/threats", "/api/assets", "/api/pirs", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 for %s", target)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupServer(t)

	body, _ := json.Marshal(map[string]string{"username": "analyst", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestThreatEndpoints(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	score := 9.8
	require.NoError(t, env.threats.UpsertThreat(context.Background(), domain.Threat{
		ID:            "threat-1",
		CVEID:         "CVE-2024-1000",
		Title:         "Tomcat RCE",
		CVSSBaseScore: &score,
		Products:      []domain.ThreatProduct{{Name: "Apache Tomcat", Version: "9.0.50"}},
	}))

	t.Run("List", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats", token, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Threats []domain.Threat `json:"threats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Threats, 1)
	})

	t.Run("Get", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats/threat-1", token, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.Threat
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "CVE-2024-1000", got.CVEID)
	})

	t.Run("GetMissing", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats/no-such", token, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAnalyzeEndpointRunsPipeline(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	score := 9.8
	require.NoError(t, env.threats.UpsertThreat(context.Background(), domain.Threat{
		ID:            "threat-1",
		CVEID:         "CVE-2024-1000",
		CVSSBaseScore: &score,
		Products:      []domain.ThreatProduct{{Name: "Apache Tomcat", Version: "9.0.50"}},
	}))
	require.NoError(t, env.inv.SaveAsset(context.Background(), domain.Asset{
		ID:                  "asset-1",
		Name:                "web-01",
		DataSensitivity:     domain.ImportanceHigh,
		BusinessCriticality: domain.ImportanceHigh,
		Products:            []domain.AssetProduct{{Name: "Apache Tomcat", Version: "9.0.50"}},
	}))

	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/threats/threat-1/analyze", token, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result recompute.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Associations, 1)
	assert.Equal(t, domain.MatchExactProductExactVersion, result.Associations[0].MatchType)
	require.Len(t, result.Assessments, 1)
	assert.Equal(t, domain.RiskLevelCritical, result.Assessments[0].RiskLevel)

	t.Run("PersistedAssociationsServed", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats/threat-1/associations", token, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Associations []domain.AssociationResult `json:"associations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Associations, 1)
	})

	t.Run("PersistedAssessmentsServed", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats/threat-1/assessments", token, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Assessments []domain.RiskAssessment `json:"assessments"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Assessments, 1)
		assert.InDelta(t, 10.0, resp.Assessments[0].FinalRiskScore, 0.001)
	})
}

func TestAnalyzeMissingThreatReturns404(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/threats/ghost/analyze", token, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssetCreateAndList(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	body, _ := json.Marshal(domain.Asset{
		Name:     "db-01",
		Products: []domain.AssetProduct{{Name: "PostgreSQL", Version: "15.4"}},
	})
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/assets", token, body))
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.ImportanceMedium, created.DataSensitivity)

	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/assets/"+created.ID, token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPIRCreateRejectsEmptyCondition(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	body, _ := json.Marshal(domain.PIR{Name: "empty", IsEnabled: true})
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/pirs", token, body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPIRCreateAndFilterEnabled(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	for _, pir := range []domain.PIR{
		{Name: "ransomware", IsEnabled: true, Condition: domain.PIRCondition{ThreatTypes: []string{"ransomware"}}},
		{Name: "dormant", IsEnabled: false, Condition: domain.PIRCondition{CVEIDs: []string{"CVE-2020-1"}}},
	} {
		body, _ := json.Marshal(pir)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/pirs", token, body))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/pirs?enabled=true", token, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PIRs []domain.PIR `json:"pirs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.PIRs, 1)
	assert.Equal(t, "ransomware", resp.PIRs[0].Name)
}

func TestRecomputeEndpoint(t *testing.T) {
	env := setupServer(t)
	token := login(t, env)

	score := 7.5
	require.NoError(t, env.threats.UpsertThreat(context.Background(), domain.Threat{
		ID:            "threat-1",
		CVSSBaseScore: &score,
		Products:      []domain.ThreatProduct{{Name: "nginx", Version: "1.24"}},
	}))
	require.NoError(t, env.inv.SaveAsset(context.Background(), domain.Asset{
		ID:                  "asset-1",
		DataSensitivity:     domain.ImportanceMedium,
		BusinessCriticality: domain.ImportanceMedium,
		Products:            []domain.AssetProduct{{Name: "nginx", Version: "1.24"}},
	}))

	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/recompute", token, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary recompute.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Threats)
	assert.Equal(t, 1, summary.Associations)
	assert.Equal(t, 0, summary.Failures)
}

func TestViewerCannotTriggerAnalysis(t *testing.T) {
	env := setupServer(t)

	authSvc := env.server.AuthService.(*auth.Service)
	require.NoError(t, authSvc.CreateUser(context.Background(), domain.User{
		Username: "viewer",
		Role:     domain.RoleViewer,
	}, "readonlyreadonly"))

	body, _ := json.Marshal(map[string]string{"username": "viewer", "password": "readonlyreadonly"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token := resp["token"]

	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/recompute", token, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Reads stay open to viewers.
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/threats", token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

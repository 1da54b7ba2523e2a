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

	"github.com/mamadbah2/herd/internal/config"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/repository/memory"
	"github.com/mamadbah2/herd/internal/server/handlers"
	"github.com/mamadbah2/herd/internal/service/auth"
	"github.com/mamadbah2/herd/internal/service/commands"
	"github.com/mamadbah2/herd/internal/service/farm"
	"github.com/mamadbah2/herd/internal/service/reminders"
	"github.com/mamadbah2/herd/internal/service/reporting"
	"github.com/mamadbah2/herd/internal/service/whatsapp"
)

var testNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

type testServer struct {
	engine *gin.Engine
	token  string
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewRepository()
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return testNow })
	provider := farm.NewProvider(repo, clock, time.Sunday, farm.Profile{Name: "Hillside", Size: 12, Units: "hectares"}, nil)
	if err := provider.Load(t.Context()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	authSvc := auth.NewService(repo, nil, "0123456789abcdef0123", time.Hour, nil)
	remindersSvc := reminders.NewService(provider, nil, "", nil)
	reportingSvc := reporting.NewService(nil, repo, nil)
	messaging := whatsapp.NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "verify"}, nil, commands.NewService(provider, nil), nil)

	engine := New(Handlers{
		Farm:    handlers.NewFarmHandler(provider, clock, reportingSvc, remindersSvc, nil),
		Auth:    handlers.NewAuthHandler(authSvc, nil),
		Webhook: handlers.NewWebhookHandler(messaging, nil),
	}, authSvc, config.AuthConfig{RateLimitRPS: 0.001, RateLimitBurst: burst}, nil)

	return &testServer{engine: engine}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signUp(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/signup", map[string]string{"email": "farmer@example.com", "password": "secret123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from signup, got %d: %s", rec.Code, rec.Body.String())
	}
	var session auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	s.token = session.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, 10)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"health check", "/healthz", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"webhook verify", "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=42", http.StatusOK},
		{"webhook missing mode", "/webhook?hub.verify_token=verify&hub.challenge=42", http.StatusBadRequest},
		{"webhook bad token", "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", http.StatusForbidden},
		{"api requires auth", "/api/farm", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAnimalLifecycle(t *testing.T) {
	s := newTestServer(t, 10)
	s.signUp(t)

	rec := s.do(t, http.MethodPost, "/api/animals", map[string]any{
		"tag": "A-12", "type": "dairy_cattle", "breed": "Holstein",
		"birthDate": "2020/03/01", "gender": "female", "status": "lactating", "weight": 480,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	animal := decode(t, rec)
	id, _ := animal["id"].(string)
	if animal["type"] != "dairy" {
		t.Errorf("Expected legacy type to be normalized, got %v", animal["type"])
	}
	if !strings.HasPrefix(animal["birthDate"].(string), "2020-03-01") {
		t.Errorf("Expected birth date 2020-03-01, got %v", animal["birthDate"])
	}

	rec = s.do(t, http.MethodPost, "/api/production", map[string]any{
		"animalId": id, "type": "milk", "quantity": 14.5, "shift": "mañana",
		"date": map[string]int64{"seconds": 1717372800, "nanoseconds": 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for production, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/production?type=milk&from=2024-06-01", nil)
	list := decode(t, rec)
	if list["subtotal"] != 14.5 {
		t.Errorf("Expected subtotal 14.5, got %v", list["subtotal"])
	}

	rec = s.do(t, http.MethodGet, "/api/dashboard", nil)
	dashboard := decode(t, rec)
	milk := dashboard["production"].(map[string]any)["milk"].(map[string]any)
	if milk["today"] != 14.5 {
		t.Errorf("Expected 14.5 L today on the dashboard, got %v", milk["today"])
	}

	rec = s.do(t, http.MethodGet, "/api/farm", nil)
	counts := decode(t, rec)["animalCount"].(map[string]any)
	if counts["dairy"] != float64(1) || counts["total"] != float64(1) {
		t.Errorf("Unexpected animal count %v", counts)
	}

	rec = s.do(t, http.MethodGet, "/api/animals/"+id+"/records", nil)
	records := decode(t, rec)
	if len(records["production"].([]any)) != 1 {
		t.Errorf("Expected one production record for the animal, got %v", records["production"])
	}

	rec = s.do(t, http.MethodDelete, "/api/animals/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on delete, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/production", nil)
	if n := len(decode(t, rec)["records"].([]any)); n != 0 {
		t.Errorf("Expected cascade delete of production, %d records left", n)
	}
}

func TestDoseRoutes(t *testing.T) {
	s := newTestServer(t, 10)
	s.signUp(t)

	rec := s.do(t, http.MethodPost, "/api/animals", map[string]any{
		"tag": "B-1", "type": "beef", "breed": "Angus", "birthDate": "2021-01-15", "gender": "male", "status": "healthy",
	})
	id, _ := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/health", map[string]any{
		"animalId": id, "date": "2024-05-20", "type": "vaccination", "description": "Anthrax",
		"nextDoseDate": "2024-06-03", "repeatEveryDays": 30, "reminderEnabled": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for health record, got %d: %s", rec.Code, rec.Body.String())
	}
	healthID, _ := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/health/upcoming", nil)
	doses := decode(t, rec)["doses"].([]any)
	if len(doses) != 1 {
		t.Fatalf("Expected one upcoming dose, got %d", len(doses))
	}
	assessment := doses[0].(map[string]any)["assessment"].(map[string]any)
	if assessment["status"] != "due-today" {
		t.Errorf("Expected due-today, got %v", assessment["status"])
	}

	rec = s.do(t, http.MethodPost, "/api/health/"+healthID+"/applied", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from applied, got %d: %s", rec.Code, rec.Body.String())
	}
	if next := decode(t, rec)["nextDoseDate"].(string); !strings.HasPrefix(next, "2024-07-03") {
		t.Errorf("Expected next dose 2024-07-03, got %s", next)
	}
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t, 10)
	s.signUp(t)

	rec := s.do(t, http.MethodPost, "/api/animals", map[string]any{"tag": "", "type": "goat"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)["error"].(map[string]any)
	details := body["details"].(map[string]any)
	for _, field := range []string{"tag", "type", "breed", "birthDate"} {
		if _, ok := details[field]; !ok {
			t.Errorf("Expected a detail for %s, got %v", field, details)
		}
	}

	if rec := s.do(t, http.MethodGet, "/api/animals/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/animals", "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/production/export", map[string]string{"type": "milk"}); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when export is disabled, got %d", rec.Code)
	}
}

func TestSignOutRevokesAccess(t *testing.T) {
	s := newTestServer(t, 10)
	s.signUp(t)

	if rec := s.do(t, http.MethodGet, "/api/me", nil); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /api/me, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/auth/signout", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 from signout, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after signout, got %d", rec.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	creds := map[string]string{"email": "nobody@example.com", "password": "secret123"}

	for i := 0; i < 2; i++ {
		if rec := s.do(t, http.MethodPost, "/api/auth/signin", creds); rec.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401 for attempt %d, got %d", i+1, rec.Code)
		}
	}
	if rec := s.do(t, http.MethodPost, "/api/auth/signin", creds); rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the burst is spent, got %d", rec.Code)
	}
}

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/session"
)

type backend struct {
	t         *testing.T
	srv       *httptest.Server
	forbidden atomic.Bool
	// anonymous makes login issue tokens without userId or sub.
	anonymous atomic.Bool
	statsDown atomic.Bool
	logins    atomic.Int32
	signups   atomic.Int32
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	return signClaims(t, jwt.MapClaims{"userId": "u-1", "exp": time.Now().Add(ttl).Unix()})
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.logins.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid credentials"))
			return
		}
		if b.anonymous.Load() {
			writeJSON(w, map[string]string{"token": signClaims(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})})
			return
		}
		writeJSON(w, map[string]string{"token": signedToken(t, time.Hour)})
	})
	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		b.signups.Add(1)
		writeJSON(w, map[string]string{"token": signedToken(t, time.Hour)})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if b.forbidden.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("%s %s sent without bearer", r.Method, r.URL.Path)
		}
		switch {
		case r.URL.Path == "/v1/patterns":
			writeJSON(w, []map[string]string{{"id": "p-observer", "name": "Observer"}, {"id": "p-strategy", "name": "Strategy"}})
		case r.URL.Path == "/v1/challenges" && r.Method == http.MethodPost:
			writeJSON(w, map[string]any{"id": "c-1", "title": "Notify subscribers", "description": "Several widgets react to one feed.", "expectedPatternId": "p-observer"})
		case r.URL.Path == "/v1/submissions":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, map[string]any{
				"id": "s-1", "challengeId": req["challengeId"], "patternId": req["patternId"], "code": req["code"],
				"evaluation":          map[string]any{"score": 85, "feedback": map[string]any{"strengths": []string{"Clear subject"}}},
				"selectedPatternName": "Observer", "expectedPatternName": "Observer",
			})
		case strings.HasSuffix(r.URL.Path, "/submissions"):
			writeJSON(w, []any{})
		case r.URL.Path == "/v1/users/u-1/statistics" && b.statsDown.Load():
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("Internal Server Error"))
		case r.URL.Path == "/v1/users/u-1/statistics":
			writeJSON(w, map[string]any{"completedChallenges": 7, "percentage": 35, "currentStreak": 2, "longestStreak": 4})
		case r.URL.Path == "/v1/users/u-1/challenges":
			writeJSON(w, map[string]any{"content": []any{map[string]any{"id": "c-1", "title": "Notify subscribers", "publishedAt": "2026-10-01"}}, "totalPages": 1, "size": 15, "number": 0})
		default:
			http.NotFound(w, r)
		}
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newTestApp(t *testing.T) (*App, *backend) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := newBackend(t)
	cfg := config.Default()
	cfg.Env = "test"
	cfg.API.BaseURL = b.srv.URL
	cfg.Storage.Driver = config.StorageMemory
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	a, err := NewWithConfig(context.Background(), logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)
	return a, b
}

func do(a *App, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, a *App) {
	t.Helper()
	rec := do(a, http.MethodPost, "/login", url.Values{"email": {"dev@example.test"}, "password": {"secret1"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("login: status=%d location=%q body=%s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	a, _ := newTestApp(t)
	for _, path := range []string{"/", "/practice", "/daily-challenge", "/challenges"} {
		rec := do(a, http.MethodGet, path, nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: status=%d location=%q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
	if rec := do(a, http.MethodGet, "/events", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("/events: status=%d", rec.Code)
	}
	if rec := do(a, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("/healthz: status=%d", rec.Code)
	}
	if rec := do(a, http.MethodGet, "/login", nil); rec.Code != http.StatusOK {
		t.Fatalf("/login: status=%d", rec.Code)
	}
}

func TestLoginFailureRendersFormattedMessage(t *testing.T) {
	a, _ := newTestApp(t)
	rec := do(a, http.MethodPost, "/login", url.Values{"email": {"dev@example.test"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Email ou senha incorretos") || !strings.Contains(body, "Verifique suas credenciais") {
		t.Fatalf("missing formatted auth message: %s", body)
	}
	if a.Sessions.State() != session.Anonymous {
		t.Fatalf("state=%s", a.Sessions.State())
	}
}

func TestLoginWithoutIdentityStaysOnLoginPage(t *testing.T) {
	a, b := newTestApp(t)
	b.anonymous.Store(true)

	rec := do(a, http.MethodPost, "/login", url.Values{"email": {"dev@example.test"}, "password": {"secret1"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	if a.Sessions.State() != session.Anonymous {
		t.Fatalf("state=%s", a.Sessions.State())
	}
	// / sends to /login, and /login renders instead of bouncing back to /.
	if rec := do(a, http.MethodGet, "/", nil); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("/: status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := do(a, http.MethodGet, "/login", nil); rec.Code != http.StatusOK {
		t.Fatalf("/login: status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestSignupValidationSkipsBackend(t *testing.T) {
	a, b := newTestApp(t)
	rec := do(a, http.MethodPost, "/signup", url.Values{
		"username": {"dev"}, "email": {"dev@example.test"}, "password": {"secret1"}, "confirm": {"secret2"},
	})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "As senhas não coincidem") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if b.signups.Load() != 0 {
		t.Fatalf("backend called %d times", b.signups.Load())
	}

	rec = do(a, http.MethodPost, "/signup", url.Values{
		"username": {"dev"}, "email": {"dev@example.test"}, "password": {"secret1"}, "confirm": {"secret1"},
	})
	if rec.Code != http.StatusSeeOther || a.Sessions.State() != session.Authenticated {
		t.Fatalf("signup: status=%d state=%s", rec.Code, a.Sessions.State())
	}
}

func TestDashboardAndHistory(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)

	rec := do(a, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<strong>7</strong>") {
		t.Fatalf("dashboard: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(a, http.MethodGet, "/challenges", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Notify subscribers") || !strings.Contains(rec.Body.String(), "01/10/2026") {
		t.Fatalf("history: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(a, http.MethodGet, "/challenges/c-1/submission", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Nenhuma submissão") {
		t.Fatalf("empty submission: status=%d", rec.Code)
	}
}

func TestDashboardStatisticsFailureShowsFormattedMessage(t *testing.T) {
	a, b := newTestApp(t)
	login(t, a)
	b.statsDown.Store(true)

	rec := do(a, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Não foi possível carregar suas estatísticas: Erro no servidor. Tente novamente em alguns instantes") {
		t.Fatalf("missing formatted alert: %s", body)
	}
	if !strings.Contains(body, "<strong>0</strong>") {
		t.Fatalf("statistics should fall back to zeros: %s", body)
	}
}

func TestPracticeGenerateAndSubmit(t *testing.T) {
	a, _ := newTestApp(t)
	login(t, a)

	if rec := do(a, http.MethodGet, "/practice", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Ready to Practice?") {
		t.Fatalf("practice: status=%d", rec.Code)
	}
	if rec := do(a, http.MethodPost, "/practice/generate", url.Values{}); rec.Code != http.StatusSeeOther {
		t.Fatalf("generate: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec := do(a, http.MethodPost, "/practice/generate", url.Values{})
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "Submeta sua solução") {
		t.Fatalf("second generate: status=%d", rec.Code)
	}
	rec = do(a, http.MethodPost, "/practice/submit", url.Values{"code": {"class Feed {}"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/practice/results" {
		t.Fatalf("submit: status=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	rec = do(a, http.MethodGet, "/practice/results", nil)
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, `class="good">85`) || !strings.Contains(body, "✓") || !strings.Contains(body, "class Feed {}") {
		t.Fatalf("results: status=%d body=%s", rec.Code, body)
	}
}

func TestForbiddenEndsSessionWithOneNotice(t *testing.T) {
	a, b := newTestApp(t)
	login(t, a)

	var notices atomic.Int32
	unsubscribe := a.Sessions.Subscribe(func(session.Notice) { notices.Add(1) })
	defer unsubscribe()
	events := a.Hub.Register()
	defer a.Hub.Unregister(events)

	b.forbidden.Store(true)
	var wg sync.WaitGroup
	codes := make([]int, 6)
	paths := []string{"/", "/practice", "/challenges", "/daily-challenge", "/", "/challenges"}
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			codes[i] = do(a, http.MethodGet, p, nil).Code
		}(i, p)
	}
	wg.Wait()

	if got := notices.Load(); got != 1 {
		t.Fatalf("want exactly one notice, got %d", got)
	}
	for i, c := range codes {
		if c != http.StatusSeeOther && c != http.StatusFound {
			t.Fatalf("%s: status=%d, want redirect", paths[i], c)
		}
	}
	select {
	case msg := <-events.Outbound:
		if msg.Event != "session.expired" || msg.Redirect != "/login" {
			t.Fatalf("event: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("no session.expired event")
	}
	if a.Sessions.State() != session.Expired {
		t.Fatalf("state=%s", a.Sessions.State())
	}

	rec := do(a, http.MethodGet, "/login", nil)
	if !strings.Contains(rec.Body.String(), "Sua sessão expirou") {
		t.Fatalf("login page must show the expiry notice")
	}
	if a.Sessions.State() != session.Anonymous {
		t.Fatalf("notice not acknowledged: state=%s", a.Sessions.State())
	}
	if strings.Contains(do(a, http.MethodGet, "/login", nil).Body.String(), "Sua sessão expirou") {
		t.Fatalf("notice must be shown once")
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/patternlab/internal/domain"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type staticTokens string

func (s staticTokens) Token(context.Context) (string, bool) { return string(s), s != "" }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newTestClient(t *testing.T, rt roundTripperFunc, tokens TokenSource, onForbidden func(context.Context)) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:     "http://api.test/",
		Timeout:     2 * time.Second,
		HTTPClient:  &http.Client{Transport: rt},
		Tokens:      tokens,
		OnForbidden: onForbidden,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestLoginSendsCredentialsWithoutBearer(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		if req.Header.Get("Authorization") != "" {
			t.Fatalf("login must not carry a bearer token")
		}
		if req.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("content-type=%q", req.Header.Get("Content-Type"))
		}
		var in map[string]string
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			t.Fatalf("decode req: %v", err)
		}
		if in["email"] != "dev@example.test" || in["password"] != "pw1234" {
			t.Fatalf("body=%v", in)
		}
		if _, ok := in["username"]; ok {
			t.Fatalf("login body should omit username")
		}
		return respond(http.StatusOK, `{"token":"t.o.k"}`), nil
	}, staticTokens("ignored"), nil)

	tok, err := c.Login(context.Background(), "dev@example.test", "pw1234")
	if err != nil || tok != "t.o.k" {
		t.Fatalf("token=%q err=%v", tok, err)
	}
}

func TestFailureUsesBodyOrDefault(t *testing.T) {
	body := ""
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, body), nil
	}, nil, nil)

	_, err := c.Signup(context.Background(), "dev", "dev@example.test", "pw1234")
	if err == nil || err.Error() != "Falha ao criar conta" {
		t.Fatalf("want default text, got %v", err)
	}
	body = "  Email already exists \n"
	_, err = c.Signup(context.Background(), "dev", "dev@example.test", "pw1234")
	if err == nil || err.Error() != "Email already exists" {
		t.Fatalf("want body text, got %v", err)
	}
	if StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("status=%d", StatusCode(err))
	}
}

func TestAuthenticatedCallAttachesBearer(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("authorization=%q", got)
		}
		return respond(http.StatusOK, `[{"id":"observer","name":"Observer"}]`), nil
	}, staticTokens("tok-1"), nil)

	got, err := c.ListPatterns(context.Background())
	if err != nil || len(got) != 1 || got[0] != (domain.PatternRef{ID: "observer", Name: "Observer"}) {
		t.Fatalf("patterns=%v err=%v", got, err)
	}
}

func TestForbiddenTriggersHookOnce(t *testing.T) {
	var hooks atomic.Int32
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusForbidden, "forbidden"), nil
	}, staticTokens("tok-1"), func(context.Context) { hooks.Add(1) })

	_, err := c.GenerateChallenge(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired got %v", err)
	}
	if err.Error() != SessionExpiredMessage {
		t.Fatalf("message=%q", err.Error())
	}
	if hooks.Load() != 1 {
		t.Fatalf("hook calls=%d", hooks.Load())
	}
}

func TestForbiddenOnLoginIsPlainFailure(t *testing.T) {
	var hooks atomic.Int32
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusForbidden, "Invalid credentials"), nil
	}, nil, func(context.Context) { hooks.Add(1) })

	_, err := c.Login(context.Background(), "a@b.c", "x")
	if errors.Is(err, ErrSessionExpired) || hooks.Load() != 0 {
		t.Fatalf("login 403 must not end a session: err=%v hooks=%d", err, hooks.Load())
	}
}

func TestMissingTokenShortCircuits(t *testing.T) {
	var sent atomic.Int32
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		sent.Add(1)
		return respond(http.StatusOK, `{}`), nil
	}, staticTokens(""), nil)

	if _, err := c.DailyChallenge(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired got %v", err)
	}
	if sent.Load() != 0 {
		t.Fatalf("request sent without a token")
	}
}

func TestPathsAndQuery(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.EscapedPath()+"?"+req.URL.RawQuery)
		switch {
		case strings.HasSuffix(req.URL.Path, "/statistics"):
			return respond(http.StatusOK, `{"completedChallenges":3,"percentage":42.5,"currentStreak":2,"longestStreak":5}`), nil
		case strings.HasSuffix(req.URL.Path, "/submissions"):
			return respond(http.StatusOK, `[{"id":"s1","evaluation":null},{"id":"s2","evaluation":{"score":80,"feedback":{"keyPoints":["k"],"strengths":[],"improvements":[]}}}]`), nil
		default:
			return respond(http.StatusOK, `{"content":[{"id":"c1","title":"T","isDaily":true}],"totalPages":2,"totalElements":16,"size":15,"number":1}`), nil
		}
	}, staticTokens("tok"), nil)
	ctx := context.Background()

	page, err := c.UserChallenges(ctx, "u 1", 1, 0)
	if err != nil || page.TotalPages != 2 || len(page.Content) != 1 || !page.Content[0].IsDaily {
		t.Fatalf("page=%+v err=%v", page, err)
	}
	subs, err := c.ChallengeSubmissions(ctx, "u 1", "c/1")
	if err != nil || len(subs) != 2 || subs[0].Evaluated() || !subs[1].Evaluation.Good() {
		t.Fatalf("subs=%+v err=%v", subs, err)
	}
	stats, err := c.UserStatistics(ctx, "u 1")
	if err != nil || stats.LongestStreak != 5 || stats.Percentage != 42.5 {
		t.Fatalf("stats=%+v err=%v", stats, err)
	}

	want := []string{
		"/v1/users/u%201/challenges?page=1&pageSize=15",
		"/v1/users/u%201/challenges/c%2F1/submissions?",
		"/v1/users/u%201/statistics?",
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("path[%d] want=%s got=%s", i, want[i], paths[i])
		}
	}
}

func TestMissingUserID(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	}, staticTokens("tok"), nil)
	if _, err := c.UserStatistics(context.Background(), ""); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("want ErrMissingUserID got %v", err)
	}
}

func TestNetworkAndTimeoutErrors(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, nil, nil)
	_, err := c.Login(context.Background(), "a@b.c", "x")
	if err == nil || !strings.HasPrefix(err.Error(), "network error:") {
		t.Fatalf("want network error, got %v", err)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	tc, err := New(Options{BaseURL: slow.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = tc.Login(context.Background(), "a@b.c", "x")
	if err == nil || !strings.HasPrefix(err.Error(), "timeout:") {
		t.Fatalf("want timeout error, got %v", err)
	}
}

func TestSubmitSolutionAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/submissions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var in domain.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Submission{
			ID: "s-1", UserID: in.UserID, ChallengeID: in.ChallengeID, PatternID: in.PatternID,
			Code: in.Code, Language: in.Language,
		})
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Tokens: staticTokens("tok")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sub, err := c.SubmitSolution(context.Background(), domain.SubmitRequest{
		UserID: "u-1", ChallengeID: "c-1", PatternID: "observer", Code: "x", Language: "python",
	})
	if err != nil || sub.ID != "s-1" || sub.PatternID != "observer" || sub.Language != "python" {
		t.Fatalf("sub=%+v err=%v", sub, err)
	}
}

func TestWithSessionCopies(t *testing.T) {
	base := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `[]`), nil
	}, nil, nil)
	bound := base.WithSession(staticTokens("tok"), nil)
	if _, err := bound.ListPatterns(context.Background()); err != nil {
		t.Fatalf("bound client: %v", err)
	}
	if _, err := base.ListPatterns(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("base client should stay unauthenticated, got %v", err)
	}
}

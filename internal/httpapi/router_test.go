package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcache"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcodec"
)

type fakeChartStore struct {
	path string
	err  error
}

func (s *fakeChartStore) Get(ctx context.Context, id string) (chartcache.Result, error) {
	if s.err != nil {
		return chartcache.Result{}, s.err
	}
	return chartcache.Result{BinPath: s.path, Hit: true}, nil
}

type fakeAuthClient struct {
	token string
	user  AuthUser
	err   error
}

func (a *fakeAuthClient) Login(ctx context.Context, username, password string) (string, AuthUser, error) {
	if a.err != nil {
		return "", AuthUser{}, a.err
	}
	return a.token, a.user, nil
}

func (a *fakeAuthClient) Me(ctx context.Context, token string) (AuthUser, error) {
	if token != a.token {
		return AuthUser{}, a.err
	}
	return a.user, nil
}

func newTestRouter(t *testing.T, charts ChartStore, auth AuthClient) *Router {
	t.Helper()
	rooms := NewRoomDirectory(context.Background(), fakeLister{})
	return NewRouter(charts, auth, rooms, nil, zerolog.Nop())
}

type fakeLister struct{}

func (fakeLister) ListRooms(ctx context.Context) ([]RoomSummary, error) { return nil, nil }

func TestHandleChart_Synthetic(t *testing.T) {
	rt := newTestRouter(t, &fakeChartStore{}, &fakeAuthClient{})
	req := httptest.NewRequest(http.MethodGet, "/chart/test", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, _, err := chartcodec.Decode(rec.Body.Bytes()); err != nil {
		t.Fatalf("decoding synthetic chart response: %v", err)
	}
}

func TestHandleChart_CacheHit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc.bin")
	if err := os.WriteFile(path, []byte("chart-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	rt := newTestRouter(t, &fakeChartStore{path: path}, &fakeAuthClient{})

	req := httptest.NewRequest(http.MethodGet, "/chart/abc", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("X-Cache = %q, want hit", got)
	}
	if rec.Body.String() != "chart-bytes" {
		t.Errorf("body = %q, want chart-bytes", rec.Body.String())
	}
}

func TestHandleChart_UpstreamError(t *testing.T) {
	rt := newTestRouter(t, &fakeChartStore{err: context.DeadlineExceeded}, &fakeAuthClient{})
	req := httptest.NewRequest(http.MethodGet, "/chart/abc", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	auth := &fakeAuthClient{token: "tok-1", user: AuthUser{ID: 7, Name: "alice"}}
	rt := newTestRouter(t, &fakeChartStore{}, auth)

	body := `{"username":"alice","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token != "tok-1" || resp.User.Name != "alice" {
		t.Errorf("resp = %+v, want token tok-1 / user alice", resp)
	}
}

func TestHandleLogin_Rejected(t *testing.T) {
	auth := &fakeAuthClient{err: context.DeadlineExceeded}
	rt := newTestRouter(t, &fakeChartStore{}, auth)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"x","password":"y"}`))
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleMe_MissingToken(t *testing.T) {
	rt := newTestRouter(t, &fakeChartStore{}, &fakeAuthClient{})
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleMe_BearerToken(t *testing.T) {
	auth := &fakeAuthClient{token: "tok-1", user: AuthUser{ID: 7, Name: "alice"}}
	rt := newTestRouter(t, &fakeChartStore{}, auth)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleRoomInfoByID_Unknown(t *testing.T) {
	rt := newTestRouter(t, &fakeChartStore{}, &fakeAuthClient{})
	req := httptest.NewRequest(http.MethodGet, "/rooms/info/nope", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"tasker/internal/service"
	"tasker/internal/testutil"
)

func serveCallback(t *testing.T, svc service.Service, query string) (*httptest.ResponseRecorder, oauthResult) {
	t.Helper()
	results := make(chan oauthResult, 1)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)

	callbackHandler(context.Background(), svc, results).ServeHTTP(rec, req)

	select {
	case res := <-results:
		return rec, res
	default:
		t.Fatal("handler sent no result")
		return nil, oauthResult{}
	}
}

func TestCallbackHandler_Code(t *testing.T) {
	svc := testutil.NewFakeService()

	rec, res := serveCallback(t, svc, "code=abc&state=xyz")

	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if svc.LastOAuthQuery != "code=abc&state=xyz" {
		t.Errorf("expected raw query forwarded, got %q", svc.LastOAuthQuery)
	}
	if res.session.AccessToken != "fake-token" {
		t.Errorf("unexpected session %+v", res.session)
	}
}

func TestCallbackHandler_JwtToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "erin", "scope": "read write"}).
		SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	svc := testutil.NewFakeService()

	_, res := serveCallback(t, svc, "JwtToken="+token)

	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.session.Profile.Username != "erin" {
		t.Errorf("unexpected profile %+v", res.session.Profile)
	}
	if svc.LastOAuthQuery != "" {
		t.Error("expected no API call when a token is delivered")
	}
}

func TestCallbackHandler_Failures(t *testing.T) {
	tests := []struct {
		name  string
		query string
		svc   func() *testutil.FakeService
		match error
	}{
		{name: "provider error", query: "error=access_denied", match: service.ErrUnauthorized},
		{name: "no code", query: "state=xyz", match: service.ErrInvalidArgument},
		{name: "bad token", query: "JwtToken=abc", match: service.ErrMalformedToken},
		{
			name:  "exchange rejected",
			query: "code=stale",
			svc: func() *testutil.FakeService {
				s := testutil.NewFakeService()
				s.OAuthSessionErr = &service.RemoteError{StatusCode: 401, Message: "Authentication failed"}
				return s
			},
			match: service.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			if tt.svc != nil {
				svc = tt.svc()
			}

			rec, res := serveCallback(t, svc, tt.query)

			if !errors.Is(res.err, tt.match) {
				t.Errorf("expected %v, got %v", tt.match, res.err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestFindAvailablePort_SkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	start := busy.Addr().(*net.TCPAddr).Port

	port, listener, err := findAvailablePort(start)
	if err != nil {
		t.Skipf("no free port near %d: %v", start, err)
	}
	defer listener.Close()

	if port == start {
		t.Errorf("expected a port other than the busy %d", start)
	}
	if port > start+oauthMaxPortAttempts-1 {
		t.Errorf("port %d outside the tried range", port)
	}
}

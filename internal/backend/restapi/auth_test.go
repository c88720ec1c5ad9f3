package restapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/backend/restapi"
	"tasker/internal/service"
)

func TestSignIn(t *testing.T) {
	client, api, _ := newClient(t)
	api.AddUser("alice", "alice@example.com", "s3cret")

	session, err := client.SignIn(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, api.Token, session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, "alice", session.Profile.Username)
	assert.Equal(t, "alice@example.com", session.Profile.Email)
	assert.Equal(t, []string{"ROLE_USER"}, session.Profile.Roles)
	require.NotNil(t, session.Profile.ID)
	assert.Equal(t, int64(1), *session.Profile.ID)

	req, _ := api.LastRequest()
	assert.Equal(t, restapi.SignInPath, req.Path)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, map[string]any{"username": "alice", "password": "s3cret"}, decodeBody(t, req.Body))
}

func TestSignIn_BadCredentials(t *testing.T) {
	client, api, _ := newClient(t)
	api.AddUser("alice", "alice@example.com", "s3cret")

	_, err := client.SignIn(context.Background(), "alice", "wrong")

	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Bad credentials", remoteErr.Message)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestSignIn_NoAccessToken(t *testing.T) {
	client, api, _ := newClient(t)
	api.Override(http.MethodPost, restapi.SignInPath, respondJSON(http.StatusOK, `{"username":"alice"}`))

	_, err := client.SignIn(context.Background(), "alice", "pw")

	assert.ErrorIs(t, err, service.ErrMalformedResponse)
	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Failed to login", remoteErr.Message)
}

func TestSignUp(t *testing.T) {
	client, api, _ := newClient(t)

	err := client.SignUp(context.Background(), "bob", "bob@example.com", "hunter2")
	require.NoError(t, err)

	req, _ := api.LastRequest()
	assert.Equal(t, restapi.SignUpPath, req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "hunter2",
	}, decodeBody(t, req.Body))

	err = client.SignUp(context.Background(), "bob", "other@example.com", "x")
	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, "Error: Username is already taken!", remoteErr.Message)
}

func TestSignUp_NonJSONSuccessBody(t *testing.T) {
	client, api, _ := newClient(t)
	api.Override(http.MethodPost, restapi.SignUpPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("registered"))
	})

	assert.NoError(t, client.SignUp(context.Background(), "carol", "carol@example.com", "pw"))
}

func TestOAuthSession(t *testing.T) {
	client, api, _ := newClient(t)

	session, err := client.OAuthSession(context.Background(), "code="+api.OAuthCode+"&state=xyz")
	require.NoError(t, err)

	assert.Equal(t, api.Token, session.AccessToken)
	assert.Equal(t, "oauth-user", session.Profile.Username)

	req, _ := api.LastRequest()
	assert.Equal(t, restapi.OAuthCallbackPath, req.Path)
	q, err := url.ParseQuery(req.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, api.OAuthCode, q.Get("code"))
	assert.Equal(t, "xyz", q.Get("state"))
}

func TestOAuthSession_Rejected(t *testing.T) {
	client, _, _ := newClient(t)

	_, err := client.OAuthSession(context.Background(), "code=wrong")

	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Authentication failed", remoteErr.Message)
}

func TestOAuthSession_InvalidQuery(t *testing.T) {
	client, api, _ := newClient(t)

	_, err := client.OAuthSession(context.Background(), "code=%zz")

	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.Empty(t, api.Requests())
}

func TestOAuthAuthorizeURL(t *testing.T) {
	client := restapi.New("http://api.example.com/")

	got := client.OAuthAuthorizeURL("http://localhost:8085/callback")

	assert.Equal(t, "http://api.example.com/oauth2/authorize/google?redirect_uri=http%3A%2F%2Flocalhost%3A8085%2Fcallback", got)
}

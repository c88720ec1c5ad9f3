package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tasker/internal/service"
)

const (
	// SignInPath is the username/password sign-in endpoint.
	SignInPath = "/api/auth/signin"

	// SignUpPath is the registration endpoint.
	SignUpPath = "/api/auth/signup"

	// OAuthAuthorizePath starts the Google OAuth flow on the API.
	OAuthAuthorizePath = "/oauth2/authorize/google"

	// OAuthCallbackPath returns the session for a completed OAuth flow.
	OAuthCallbackPath = "/oauth2/callback/google"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates with username and password.
func (c *Client) SignIn(ctx context.Context, username, password string) (service.Session, error) {
	var resp authResponse
	err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       SignInPath,
		body:       signInRequest{Username: username, Password: password},
		failureMsg: "Failed to login",
	}, &resp)
	if err != nil {
		return service.Session{}, err
	}
	return sessionFrom(resp, "Failed to login")
}

// SignUp registers an account. The response body is ignored.
func (c *Client) SignUp(ctx context.Context, username, email, password string) error {
	return c.do(ctx, request{
		method:     http.MethodPost,
		path:       SignUpPath,
		body:       signUpRequest{Username: username, Email: email, Password: password},
		accept:     true,
		failureMsg: "Failed to sign up",
	}, nil)
}

// OAuthSession fetches the session for a completed OAuth redirect.
// query is the raw query string received on the callback (code, state).
func (c *Client) OAuthSession(ctx context.Context, query string) (service.Session, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return service.Session{}, service.NewInvalidArgument(fmt.Sprintf("invalid callback query: %v", err))
	}

	var resp authResponse
	err = c.do(ctx, request{
		method:     http.MethodGet,
		path:       OAuthCallbackPath,
		query:      values,
		failureMsg: "Authentication failed",
	}, &resp)
	if err != nil {
		return service.Session{}, err
	}
	return sessionFrom(resp, "Authentication failed")
}

// OAuthAuthorizeURL returns the URL that starts the OAuth flow.
func (c *Client) OAuthAuthorizeURL(redirectURI string) string {
	q := url.Values{"redirect_uri": {redirectURI}}
	return c.baseURL + OAuthAuthorizePath + "?" + q.Encode()
}

func sessionFrom(resp authResponse, failureMsg string) (service.Session, error) {
	if resp.AccessToken == "" {
		return service.Session{}, &service.RemoteError{
			StatusCode: http.StatusOK,
			Message:    failureMsg,
			Err:        fmt.Errorf("%w: no access token in response", service.ErrMalformedResponse),
		}
	}
	return resp.toSession(), nil
}

package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tasker/internal/config"
	"tasker/internal/credential"
	"tasker/internal/exitcode"
	"tasker/internal/service"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Max port attempts, starting at cfg.CallbackPort
	oauthMaxPortAttempts = 5

	// Query parameter carrying a ready-made token on the OAuth redirect.
	jwtTokenParam = "JwtToken"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
	password string
	token    string
	oauth    bool
}

// SetPassword sets username and password (for testing).
func (c *LoginCmd) SetPassword(username, password string) {
	*c = LoginCmd{username: username, password: password}
}

// SetToken sets a pasted token (for testing).
func (c *LoginCmd) SetToken(token string) {
	*c = LoginCmd{token: token}
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string {
	return "tasker login (--username <name> --password <pw> | --oauth | --token <jwt>)"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
	fs.StringVar(&c.token, "token", "", "")
	fs.BoolVar(&c.oauth, "oauth", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	modes := 0
	if c.username != "" || c.password != "" {
		modes++
	}
	if c.token != "" {
		modes++
	}
	if c.oauth {
		modes++
	}
	if modes != 1 {
		fmt.Fprintln(errOut, "error: use exactly one of --username/--password, --oauth or --token")
		return exitcode.UserError
	}

	var session service.Session
	var err error
	switch {
	case c.token != "":
		session, err = credential.SessionFromJWT(strings.TrimSpace(c.token))
	case c.oauth:
		session, err = oauthLogin(ctx, cfg, svc, errOut)
	default:
		if c.username == "" || c.password == "" {
			fmt.Fprintln(errOut, "error: both --username and --password are required")
			return exitcode.UserError
		}
		session, err = svc.SignIn(ctx, c.username, c.password)
	}
	if err != nil {
		return report(errOut, err)
	}

	if err := sessionStore(cfg).Set(session); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", session.Profile.Username)
	}
	return exitcode.Success
}

// oauthLogin runs the browser flow: it serves the redirect on a local port,
// prints the authorize URL and waits for the callback.
func oauthLogin(ctx context.Context, cfg *config.Config, svc service.Service, errOut io.Writer) (service.Session, error) {
	port, listener, err := findAvailablePort(cfg.CallbackPort)
	if err != nil {
		return service.Session{}, err
	}
	defer listener.Close()

	redirectURL := fmt.Sprintf("http://localhost:%d/callback", port)
	cfg.Log().Debug("oauth callback listening", zap.String("redirect_uri", redirectURL))

	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, svc.OAuthAuthorizeURL(redirectURL))

	results := make(chan oauthResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(ctx, svc, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- oauthResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.session, res.err
	case <-time.After(oauthCallbackTimeout):
		return service.Session{}, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return service.Session{}, ctx.Err()
	}
}

type oauthResult struct {
	session service.Session
	err     error
}

// callbackHandler serves /callback. The redirect carries either a token
// (JwtToken), an authorization code for the API to exchange, or an error.
// The first outcome is sent on results; later ones are dropped.
func callbackHandler(ctx context.Context, svc service.Service, results chan<- oauthResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var res oauthResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: oauth provider returned %s", service.ErrUnauthorized, q.Get("error"))
		case q.Get(jwtTokenParam) != "":
			res.session, res.err = credential.SessionFromJWT(q.Get(jwtTokenParam))
		case q.Get("code") != "":
			res.session, res.err = svc.OAuthSession(ctx, r.URL.RawQuery)
		default:
			res.err = service.NewInvalidArgument("no code in callback")
		}

		if res.err != nil {
			http.Error(w, "Authentication failed", http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		}

		select {
		case results <- res:
		default:
		}
	})
	return mux
}

// findAvailablePort tries ports start through start+oauthMaxPortAttempts-1.
func findAvailablePort(start int) (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := start + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("could not bind to local port for OAuth callback (tried %d-%d)", start, start+oauthMaxPortAttempts-1)
}

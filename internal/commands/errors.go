package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tasker/internal/config"
	"tasker/internal/credential"
	"tasker/internal/exitcode"
	"tasker/internal/service"
)

// LoginHint is appended to authentication failures.
const LoginHint = "(run: tasker login)"

// sessionStore returns the credential store under the config directory.
func sessionStore(cfg *config.Config) *credential.Store {
	return credential.NewStore(cfg.SessionPath())
}

// report prints err to errOut and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var notFound errTaskNotFound
	var remoteErr *service.RemoteError

	switch {
	case errors.Is(err, service.ErrMissingCredential):
		fmt.Fprintf(errOut, "error: not logged in %s\n", LoginHint)
		return exitcode.AuthError
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrMalformedToken):
		fmt.Fprintf(errOut, "error: auth error: %v %s\n", err, LoginHint)
		return exitcode.AuthError
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, ErrTaskIDRequired), errors.As(err, &notFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.BackendError
	case errors.As(err, &remoteErr) && remoteErr.Err == nil &&
		remoteErr.StatusCode >= http.StatusBadRequest && remoteErr.StatusCode < http.StatusInternalServerError:
		// The API rejected the request itself (validation, unknown task).
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

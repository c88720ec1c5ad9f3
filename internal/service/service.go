// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Credentials builds the Authorization header for a request.
// It is passed explicitly to every task operation.
type Credentials interface {
	// AuthorizationHeader returns "<tokenType> <token>" or ErrMissingCredential.
	AuthorizationHeader() (string, error)
}

// Service defines the interface for task backend operations.
// Commands never talk HTTP directly.
type Service interface {
	// ListTasks returns all tasks in server order.
	ListTasks(ctx context.Context, creds Credentials) ([]Task, error)

	// CreateTask creates a task and returns the merged record.
	// Missing title, description and due date are defaulted before sending.
	CreateTask(ctx context.Context, creds Credentials, task Task) (Task, error)

	// UpdateTask replaces a task and returns the merged record.
	// Fails with ErrInvalidArgument before any network call if the task has no ID.
	UpdateTask(ctx context.Context, creds Credentials, task Task) (Task, error)

	// DeleteTask deletes a task by ID.
	DeleteTask(ctx context.Context, creds Credentials, id int64) error

	// SignIn authenticates with username and password.
	SignIn(ctx context.Context, username, password string) (Session, error)

	// SignUp registers a new account. It does not sign in.
	SignUp(ctx context.Context, username, email, password string) error

	// OAuthSession completes an OAuth redirect by asking the backend for the
	// session bound to the callback query (code, state).
	OAuthSession(ctx context.Context, query string) (Session, error)

	// OAuthAuthorizeURL returns the URL that starts the OAuth flow and
	// redirects back to redirectURI.
	OAuthAuthorizeURL(redirectURI string) string
}

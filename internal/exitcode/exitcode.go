// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad arguments, an unknown task or a rejected request.
	UserError = 1

	// AuthError indicates a missing, expired or rejected credential.
	AuthError = 2

	// BackendError indicates a failure talking to the task API.
	BackendError = 3
)

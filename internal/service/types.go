// Package service defines the backend-agnostic interface for task operations.
package service

// Task represents a single task record as exchanged with the task API.
// Optional fields are pointers so an omitted value can be told apart from
// a zero value when merging server responses.
type Task struct {
	ID          *int64  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     string  `json:"dueDate"`
	Completed   *bool   `json:"completed,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// HasID reports whether the task carries a server-assigned identifier.
func (t Task) HasID() bool {
	return t.ID != nil && *t.ID > 0
}

// IDValue returns the identifier or 0 if absent.
func (t Task) IDValue() int64 {
	if t.ID == nil {
		return 0
	}
	return *t.ID
}

// IsCompleted reports whether the completion flag is set and true.
func (t Task) IsCompleted() bool {
	return t.Completed != nil && *t.Completed
}

// Profile is the signed-in user's profile.
type Profile struct {
	ID       *int64   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Session is the credential produced by a successful sign-in.
type Session struct {
	AccessToken string
	TokenType   string
	Profile     Profile
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

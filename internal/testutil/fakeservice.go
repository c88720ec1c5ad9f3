// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"net/url"
	"sync"

	"tasker/internal/service"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = &service.RemoteError{StatusCode: 404, Message: "Task not found"}

// FakeService is an in-memory implementation of service.Service for testing.
// Task operations check the credentials first, like the real client.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64
	users  map[string]fakeUser

	// Session returned by SignIn and OAuthSession on success.
	Session service.Session

	// LastCreated and LastUpdated hold the records passed in, for assertions.
	LastCreated service.Task
	LastUpdated service.Task

	// LastOAuthQuery is the query passed to OAuthSession.
	LastOAuthQuery string

	// Error injection for testing
	ListTasksErr    error
	CreateTaskErr   error
	UpdateTaskErr   error
	DeleteTaskErr   error
	SignInErr       error
	SignUpErr       error
	OAuthSessionErr error
}

type fakeUser struct {
	email    string
	password string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		users:  make(map[string]fakeUser),
		Session: service.Session{
			AccessToken: "fake-token",
			TokenType:   "Bearer",
			Profile: service.Profile{
				ID:       service.Int64(1),
				Username: "alice",
				Email:    "alice@example.com",
				Roles:    []string{"ROLE_USER"},
			},
		},
	}
}

// AddTask adds a task and returns its ID.
func (f *FakeService) AddTask(title, description, dueDate string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.tasks = append(f.tasks, service.Task{
		ID:          service.Int64(id),
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Completed:   service.Bool(false),
	})
	return id
}

// Task returns a stored task by ID.
func (f *FakeService) Task(id int64) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, false
	}
	return f.tasks[i], true
}

// HasUser reports whether SignUp registered username.
func (f *FakeService) HasUser(username string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.users[username]
	return ok
}

func (f *FakeService) indexOf(id int64) int {
	for i, t := range f.tasks {
		if t.IDValue() == id {
			return i
		}
	}
	return -1
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, creds service.Credentials) ([]service.Task, error) {
	if err := checkCreds(creds); err != nil {
		return nil, err
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, creds service.Credentials, task service.Task) (service.Task, error) {
	if err := checkCreds(creds); err != nil {
		return service.Task{}, err
	}
	f.LastCreated = task
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if task.Title == "" {
		task.Title = "Untitled Task"
	}
	task.ID = service.Int64(f.nextID)
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, creds service.Credentials, task service.Task) (service.Task, error) {
	if !task.HasID() {
		return service.Task{}, service.NewInvalidArgument("Task ID is required for updating")
	}
	if err := checkCreds(creds); err != nil {
		return service.Task{}, err
	}
	f.LastUpdated = task
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(task.IDValue())
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	f.tasks[i] = task
	return task, nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, creds service.Credentials, id int64) error {
	if err := checkCreds(creds); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// SignIn implements service.Service.
func (f *FakeService) SignIn(ctx context.Context, username, password string) (service.Session, error) {
	if f.SignInErr != nil {
		return service.Session{}, f.SignInErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if u, ok := f.users[username]; ok && u.password != password {
		return service.Session{}, &service.RemoteError{StatusCode: 401, Message: "Bad credentials"}
	}
	s := f.Session
	s.Profile.Username = username
	return s, nil
}

// SignUp implements service.Service.
func (f *FakeService) SignUp(ctx context.Context, username, email, password string) error {
	if f.SignUpErr != nil {
		return f.SignUpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return &service.RemoteError{StatusCode: 400, Message: "Error: Username is already taken!"}
	}
	f.users[username] = fakeUser{email: email, password: password}
	return nil
}

// OAuthSession implements service.Service.
func (f *FakeService) OAuthSession(ctx context.Context, query string) (service.Session, error) {
	f.LastOAuthQuery = query
	if f.OAuthSessionErr != nil {
		return service.Session{}, f.OAuthSessionErr
	}
	return f.Session, nil
}

// OAuthAuthorizeURL implements service.Service.
func (f *FakeService) OAuthAuthorizeURL(redirectURI string) string {
	return "http://fake.invalid/oauth2/authorize/google?redirect_uri=" + url.QueryEscape(redirectURI)
}

func checkCreds(creds service.Credentials) error {
	if creds == nil {
		return service.ErrMissingCredential
	}
	_, err := creds.AuthorizationHeader()
	return err
}

var _ service.Service = (*FakeService)(nil)

package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"tasker/internal/service"
)

// RecordedRequest is a request received by FakeAPI.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// FakeAPI serves the task REST API from memory over httptest.
// Every request is recorded before it is handled.
type FakeAPI struct {
	mu        sync.Mutex
	tasks     []service.Task
	nextID    int64
	users     map[string]fakeUser
	requests  []RecordedRequest
	overrides map[string]http.HandlerFunc

	// Token is the access token issued on sign-in and required on /task.
	Token string

	// OAuthCode is the code accepted by the OAuth callback endpoint.
	OAuthCode string

	server *httptest.Server
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		nextID:    1,
		users:     make(map[string]fakeUser),
		overrides: make(map[string]http.HandlerFunc),
		Token:     "test-token",
		OAuthCode: "test-code",
	}
	f.server = httptest.NewServer(f.Handler())
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL of the server.
func (f *FakeAPI) URL() string {
	return f.server.URL
}

// Handler returns the API router.
func (f *FakeAPI) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Post("/api/auth/signin", f.signIn)
	r.Post("/api/auth/signup", f.signUp)
	r.Get("/oauth2/callback/google", f.oauthCallback)

	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/task", f.listTasks)
		r.Post("/task", f.createTask)
		r.Put("/task", f.updateTask)
		r.Delete("/task", f.deleteTask)
	})
	return r
}

// Override replaces the handler for method and path.
func (f *FakeAPI) Override(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = h
}

// Requests returns a copy of the recorded requests.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request, or false if there is none.
func (f *FakeAPI) LastRequest() (RecordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return RecordedRequest{}, false
	}
	return f.requests[len(f.requests)-1], true
}

// AddUser registers an account for sign-in.
func (f *FakeAPI) AddUser(username, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = fakeUser{email: email, password: password}
}

// SeedTask stores a task with the next ID and returns it.
func (f *FakeAPI) SeedTask(task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = service.Int64(f.nextID)
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task
}

// Tasks returns a copy of the stored tasks.
func (f *FakeAPI) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		override := f.overrides[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Full authentication is required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.Tasks())
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var task service.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed JSON request"})
		return
	}
	if task.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title is required"})
		return
	}
	writeJSON(w, http.StatusCreated, f.SeedTask(task))
}

func (f *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	var task service.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil || !task.HasID() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Task ID is required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.IDValue() == task.IDValue() {
			f.tasks[i] = task
			writeJSON(w, http.StatusOK, task)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func (f *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("taskId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "taskId is required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.IDValue() == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func (f *FakeAPI) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed JSON request"})
		return
	}

	f.mu.Lock()
	u, ok := f.users[req.Username]
	f.mu.Unlock()
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	writeJSON(w, http.StatusOK, f.authBody(req.Username, u.email))
}

func (f *FakeAPI) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed JSON request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[req.Username]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Error: Username is already taken!"})
		return
	}
	f.users[req.Username] = fakeUser{email: req.Email, password: req.Password}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully!"})
}

func (f *FakeAPI) oauthCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") != f.OAuthCode {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, f.authBody("oauth-user", "oauth-user@example.com"))
}

func (f *FakeAPI) authBody(username, email string) map[string]any {
	return map[string]any{
		"id":          1,
		"username":    username,
		"email":       email,
		"roles":       []string{"ROLE_USER"},
		"accessToken": f.Token,
		"tokenType":   "Bearer",
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package restapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/backend/restapi"
	"tasker/internal/credential"
	"tasker/internal/service"
	"tasker/internal/testutil"
)

var fixedNow = time.Date(2024, 3, 5, 10, 20, 30, 123000000, time.UTC)

const fixedNowISO = "2024-03-05T10:20:30.123Z"

// staticCreds is an in-memory service.Credentials.
type staticCreds string

func (s staticCreds) AuthorizationHeader() (string, error) {
	if s == "" {
		return "", service.ErrMissingCredential
	}
	return string(s), nil
}

func newClient(t *testing.T) (*restapi.Client, *testutil.FakeAPI, service.Credentials) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	client := restapi.New(api.URL(), restapi.WithClock(func() time.Time { return fixedNow }))
	return client, api, staticCreds("Bearer " + api.Token)
}

func respondJSON(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestListTasks_PreservesServerOrder(t *testing.T) {
	client, api, creds := newClient(t)
	api.SeedTask(service.Task{Title: "third", DueDate: "2024-01-03T00:00:00"})
	api.SeedTask(service.Task{Title: "first", DueDate: "2024-01-01T00:00:00"})
	api.SeedTask(service.Task{Title: "second", DueDate: "2024-01-02T00:00:00", Completed: service.Bool(true)})

	tasks, err := client.ListTasks(context.Background(), creds)
	require.NoError(t, err)

	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[1].Title)
	assert.Equal(t, "second", tasks[2].Title)
	assert.Equal(t, int64(3), tasks[2].IDValue())
	assert.True(t, tasks[2].IsCompleted())
}

func TestListTasks_MissingCredentialMakesNoRequest(t *testing.T) {
	client, api, _ := newClient(t)

	_, err := client.ListTasks(context.Background(), staticCreds(""))

	assert.ErrorIs(t, err, service.ErrMissingCredential)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, api.Requests())
}

func TestListTasks_NilCredentials(t *testing.T) {
	client, api, _ := newClient(t)

	_, err := client.ListTasks(context.Background(), nil)

	assert.ErrorIs(t, err, service.ErrMissingCredential)
	assert.Empty(t, api.Requests())
}

func TestListTasks_WithStoredCredential(t *testing.T) {
	client, api, _ := newClient(t)
	api.SeedTask(service.Task{Title: "stored"})

	store := credential.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, store.Set(service.Session{AccessToken: api.Token, TokenType: "bearer"}))

	tasks, err := client.ListTasks(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Bearer "+api.Token, req.Header.Get("Authorization"))
}

func TestListTasks_RejectedToken(t *testing.T) {
	client, _, _ := newClient(t)

	_, err := client.ListTasks(context.Background(), staticCreds("Bearer stale"))

	assert.ErrorIs(t, err, service.ErrUnauthorized)
	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Equal(t, "Full authentication is required", remoteErr.Message)
}

func TestListTasks_RemoteErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantMsg string
	}{
		{name: "message from body", code: http.StatusInternalServerError, body: `{"message":"database unavailable"}`, wantMsg: "database unavailable"},
		{name: "empty message", code: http.StatusBadRequest, body: `{"message":""}`, wantMsg: "Failed to fetch tasks"},
		{name: "non-JSON body", code: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: "Failed to fetch tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api, creds := newClient(t)
			api.Override(http.MethodGet, restapi.TaskPath, respondJSON(tt.code, tt.body))

			_, err := client.ListTasks(context.Background(), creds)

			var remoteErr *service.RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.code, remoteErr.StatusCode)
			assert.Equal(t, tt.wantMsg, remoteErr.Message)
			assert.NotErrorIs(t, err, service.ErrUnauthorized)
		})
	}
}

func TestListTasks_MalformedResponse(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodGet, restapi.TaskPath, respondJSON(http.StatusOK, `{"not":"an array"}`))

	_, err := client.ListTasks(context.Background(), creds)

	assert.ErrorIs(t, err, service.ErrMalformedResponse)
	var remoteErr *service.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
}

func TestListTasks_StringIDs(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodGet, restapi.TaskPath,
		respondJSON(http.StatusOK, `[{"id":"5","title":"a","description":"","dueDate":"2024-01-01T00:00:00"},{"id":null,"title":"b"}]`))

	tasks, err := client.ListTasks(context.Background(), creds)
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, int64(5), tasks[0].IDValue())
	assert.Nil(t, tasks[1].ID)
}

func TestRequestHeaders(t *testing.T) {
	client, api, creds := newClient(t)

	_, err := client.CreateTask(context.Background(), creds, service.Task{Title: "headers"})
	require.NoError(t, err)

	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "Bearer "+api.Token, req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	_, err = uuid.Parse(req.Header.Get(restapi.RequestIDHeader))
	assert.NoError(t, err)
}

func TestCreateTask_AppliesDefaults(t *testing.T) {
	client, api, creds := newClient(t)

	created, err := client.CreateTask(context.Background(), creds, service.Task{})
	require.NoError(t, err)

	req, _ := api.LastRequest()
	body := decodeBody(t, req.Body)
	assert.Equal(t, restapi.UntitledTask, body["title"])
	assert.Equal(t, "", body["description"])
	assert.Equal(t, fixedNowISO, body["dueDate"])

	assert.Equal(t, int64(1), created.IDValue())
	assert.Equal(t, restapi.UntitledTask, created.Title)
	assert.Equal(t, fixedNowISO, created.DueDate)
}

func TestCreateTask_KeepsLocalDueDateWhenServerOmitsIt(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodPost, restapi.TaskPath, respondJSON(http.StatusCreated, `{"id":9,"title":"Write report"}`))

	created, err := client.CreateTask(context.Background(), creds, service.Task{Title: "Write report", Description: "quarterly"})
	require.NoError(t, err)

	assert.Equal(t, service.Task{
		ID:          service.Int64(9),
		Title:       "Write report",
		Description: "quarterly",
		DueDate:     fixedNowISO,
	}, created)
}

func TestCreateTask_ServerFieldsWin(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodPost, restapi.TaskPath, respondJSON(http.StatusCreated,
		`{"id":12,"title":"Trimmed","description":"server","dueDate":"2024-06-01T12:00:00","completed":false,"status":"OPEN"}`))

	created, err := client.CreateTask(context.Background(), creds, service.Task{
		Title:       "  Trimmed  ",
		Description: "local",
		DueDate:     "2024-05-01T12:00:00",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12), created.IDValue())
	assert.Equal(t, "Trimmed", created.Title)
	assert.Equal(t, "server", created.Description)
	assert.Equal(t, "2024-06-01T12:00:00", created.DueDate)
	require.NotNil(t, created.Completed)
	assert.False(t, *created.Completed)
	require.NotNil(t, created.Status)
	assert.Equal(t, "OPEN", *created.Status)
}

func TestCreateTask_DoesNotSendID(t *testing.T) {
	client, api, creds := newClient(t)

	created, err := client.CreateTask(context.Background(), creds, service.Task{ID: service.Int64(99), Title: "new"})
	require.NoError(t, err)

	req, _ := api.LastRequest()
	assert.NotContains(t, decodeBody(t, req.Body), "id")
	assert.Equal(t, int64(1), created.IDValue())
}

func TestCreateTask_RemoteError(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodPost, restapi.TaskPath, respondJSON(http.StatusBadRequest, `{"message":"Due date must be in the future"}`))

	_, err := client.CreateTask(context.Background(), creds, service.Task{Title: "late"})

	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Due date must be in the future", remoteErr.Message)
}

func TestCreateThenList_RoundTrip(t *testing.T) {
	client, api, creds := newClient(t)
	api.SeedTask(service.Task{Title: "existing"})

	created, err := client.CreateTask(context.Background(), creds, service.Task{Title: "Buy milk", DueDate: "2024-02-01T09:00:00"})
	require.NoError(t, err)
	require.True(t, created.HasID())

	tasks, err := client.ListTasks(context.Background(), creds)
	require.NoError(t, err)

	var found bool
	for _, task := range tasks {
		if task.IDValue() == created.IDValue() {
			found = true
			assert.Equal(t, "Buy milk", task.Title)
			assert.Equal(t, "2024-02-01T09:00:00", task.DueDate)
		}
	}
	assert.True(t, found, "created task %d not in list", created.IDValue())
}

func TestUpdateTask_RequiresID(t *testing.T) {
	for _, task := range []service.Task{
		{Title: "no id"},
		{ID: service.Int64(0), Title: "zero id"},
		{ID: service.Int64(-3), Title: "negative id"},
	} {
		client, api, creds := newClient(t)

		_, err := client.UpdateTask(context.Background(), creds, task)

		assert.ErrorIs(t, err, service.ErrInvalidArgument)
		assert.EqualError(t, err, "Task ID is required for updating")
		assert.Empty(t, api.Requests())
	}
}

func TestUpdateTask_MissingIDCheckedBeforeCredential(t *testing.T) {
	client, api, _ := newClient(t)

	_, err := client.UpdateTask(context.Background(), staticCreds(""), service.Task{Title: "x"})

	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.Empty(t, api.Requests())
}

func TestUpdateTask_MergesServerOmissions(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodPut, restapi.TaskPath, respondJSON(http.StatusOK, `{"id":7,"title":"X"}`))

	updated, err := client.UpdateTask(context.Background(), creds, service.Task{
		ID:          service.Int64(7),
		Title:       "X",
		Description: "d",
		DueDate:     "2024-01-01T00:00:00",
	})
	require.NoError(t, err)

	assert.Equal(t, service.Task{
		ID:          service.Int64(7),
		Title:       "X",
		Description: "d",
		DueDate:     "2024-01-01T00:00:00",
	}, updated)
}

func TestUpdateTask_IDFallsBackToSubmitted(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodPut, restapi.TaskPath, respondJSON(http.StatusOK, `{}`))

	updated, err := client.UpdateTask(context.Background(), creds, service.Task{ID: service.Int64(31)})
	require.NoError(t, err)

	assert.Equal(t, int64(31), updated.IDValue())
	assert.Equal(t, restapi.UntitledTask, updated.Title)
	assert.Equal(t, fixedNowISO, updated.DueDate)
}

func TestUpdateTask_SendsFullRecord(t *testing.T) {
	client, api, creds := newClient(t)
	seeded := api.SeedTask(service.Task{Title: "old", Description: "old", DueDate: "2024-01-01T00:00:00"})

	updated, err := client.UpdateTask(context.Background(), creds, service.Task{
		ID:        seeded.ID,
		Title:     "new",
		Completed: service.Bool(true),
		Status:    service.String("DONE"),
	})
	require.NoError(t, err)

	req, _ := api.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	body := decodeBody(t, req.Body)
	assert.Equal(t, float64(seeded.IDValue()), body["id"])
	assert.Equal(t, "new", body["title"])
	assert.Equal(t, "", body["description"])
	assert.Equal(t, fixedNowISO, body["dueDate"])
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, "DONE", body["status"])

	assert.True(t, updated.IsCompleted())
	assert.Equal(t, "new", api.Tasks()[0].Title)
}

func TestUpdateTask_NotFound(t *testing.T) {
	client, _, creds := newClient(t)

	_, err := client.UpdateTask(context.Background(), creds, service.Task{ID: service.Int64(404), Title: "ghost"})

	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, "Task not found", remoteErr.Message)
}

func TestDeleteTask_QueryParameterAndNoBody(t *testing.T) {
	client, api, creds := newClient(t)
	seeded := api.SeedTask(service.Task{Title: "doomed"})

	err := client.DeleteTask(context.Background(), creds, seeded.IDValue())
	require.NoError(t, err)

	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, restapi.TaskPath, req.Path)
	assert.Equal(t, "taskId=1", req.RawQuery)
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Empty(t, api.Tasks())
}

func TestDeleteTask_LargeID(t *testing.T) {
	client, api, creds := newClient(t)
	api.Override(http.MethodDelete, restapi.TaskPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteTask(context.Background(), creds, 9007199254740993)
	require.NoError(t, err)

	req, _ := api.LastRequest()
	assert.Equal(t, "taskId=9007199254740993", req.RawQuery)
}

func TestDeleteTask_RemoteError(t *testing.T) {
	client, _, creds := newClient(t)

	err := client.DeleteTask(context.Background(), creds, 77)

	var remoteErr *service.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "Task not found", remoteErr.Message)
}

func TestDeleteTask_MissingCredential(t *testing.T) {
	client, api, _ := newClient(t)

	err := client.DeleteTask(context.Background(), staticCreds(""), 1)

	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, api.Requests())
}

func TestCancelledContext(t *testing.T) {
	client, _, creds := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListTasks(ctx, creds)

	assert.True(t, errors.Is(err, context.Canceled))
}

package restapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"tasker/internal/service"
)

const (
	// UntitledTask replaces an empty title on create and update.
	UntitledTask = "Untitled Task"

	// DueDateLayout is the layout of generated due dates (UTC, millisecond precision).
	DueDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ListTasks returns all tasks in server order.
func (c *Client) ListTasks(ctx context.Context, creds service.Credentials) ([]service.Task, error) {
	auth, err := authorization(creds)
	if err != nil {
		return nil, err
	}

	var resp []wireTask
	err = c.do(ctx, request{
		method:     http.MethodGet,
		path:       TaskPath,
		auth:       auth,
		failureMsg: "Failed to fetch tasks",
	}, &resp)
	if err != nil {
		return nil, err
	}

	tasks := make([]service.Task, 0, len(resp))
	for _, w := range resp {
		tasks = append(tasks, w.toTask())
	}
	return tasks, nil
}

// CreateTask creates a task. The ID, if any, is not sent.
func (c *Client) CreateTask(ctx context.Context, creds service.Credentials, task service.Task) (service.Task, error) {
	auth, err := authorization(creds)
	if err != nil {
		return service.Task{}, err
	}

	validated := c.withDefaults(task)
	validated.ID = nil
	c.log.Debug("creating task", zap.String("title", validated.Title), zap.String("due", validated.DueDate))

	var resp wireTask
	err = c.do(ctx, request{
		method:     http.MethodPost,
		path:       TaskPath,
		auth:       auth,
		body:       validated,
		failureMsg: "Failed to create task",
	}, &resp)
	if err != nil {
		return service.Task{}, err
	}

	return mergeTask(validated, resp), nil
}

// UpdateTask replaces a task. The task must carry a positive ID.
func (c *Client) UpdateTask(ctx context.Context, creds service.Credentials, task service.Task) (service.Task, error) {
	if !task.HasID() {
		return service.Task{}, service.NewInvalidArgument("Task ID is required for updating")
	}

	auth, err := authorization(creds)
	if err != nil {
		return service.Task{}, err
	}

	validated := c.withDefaults(task)
	validated.ID = service.Int64(task.IDValue())
	c.log.Debug("updating task", zap.Int64("id", task.IDValue()))

	var resp wireTask
	err = c.do(ctx, request{
		method:     http.MethodPut,
		path:       TaskPath,
		auth:       auth,
		body:       validated,
		failureMsg: "Failed to update task",
	}, &resp)
	if err != nil {
		return service.Task{}, err
	}

	return mergeTask(validated, resp), nil
}

// DeleteTask deletes a task. The ID goes in the query string; no body is sent.
func (c *Client) DeleteTask(ctx context.Context, creds service.Credentials, id int64) error {
	auth, err := authorization(creds)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:     http.MethodDelete,
		path:       TaskPath,
		query:      url.Values{TaskIDParam: {strconv.FormatInt(id, 10)}},
		auth:       auth,
		accept:     true,
		failureMsg: "Failed to delete task",
	}, nil)
}

// withDefaults fills in the title, description and due date the API requires.
// The returned task does not share pointers with t.
func (c *Client) withDefaults(t service.Task) service.Task {
	v := service.Task{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
	}
	if v.Title == "" {
		v.Title = UntitledTask
	}
	if v.DueDate == "" {
		v.DueDate = c.now().UTC().Format(DueDateLayout)
	}
	if t.Completed != nil {
		v.Completed = service.Bool(*t.Completed)
	}
	if t.Status != nil {
		v.Status = service.String(*t.Status)
	}
	return v
}

// mergeTask overlays the server response on the submitted record.
// Identifier and string fields from the server win when non-empty; the
// optional completion and status fields win whenever the server sends them.
func mergeTask(submitted service.Task, resp wireTask) service.Task {
	merged := submitted
	if resp.ID != nil && *resp.ID != 0 {
		merged.ID = service.Int64(int64(*resp.ID))
	}
	overlayNonZero(&merged.Title, resp.Title)
	overlayNonZero(&merged.Description, resp.Description)
	overlayNonZero(&merged.DueDate, resp.DueDate)
	overlayPresent(&merged.Completed, resp.Completed)
	overlayPresent(&merged.Status, resp.Status)
	return merged
}

func overlayNonZero[T comparable](dst *T, src *T) {
	var zero T
	if src != nil && *src != zero {
		*dst = *src
	}
}

func overlayPresent[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func authorization(creds service.Credentials) (string, error) {
	if creds == nil {
		return "", service.ErrMissingCredential
	}
	return creds.AuthorizationHeader()
}

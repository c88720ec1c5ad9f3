package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tasker/internal/service"
)

// ErrTaskIDRequired indicates no task ID was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the task ID from args.
// Exactly one positional argument is accepted and it must be a positive integer.
func ParseTaskID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// errTaskNotFound is returned by findTask when the list has no such ID.
type errTaskNotFound int64

func (e errTaskNotFound) Error() string {
	return fmt.Sprintf("task not found: %d", int64(e))
}

// findTask fetches the task list and returns the task with the given ID.
// The API has no single-task endpoint.
func findTask(ctx context.Context, svc service.Service, creds service.Credentials, id int64) (service.Task, error) {
	tasks, err := svc.ListTasks(ctx, creds)
	if err != nil {
		return service.Task{}, err
	}
	for _, t := range tasks {
		if t.IDValue() == id {
			return t, nil
		}
	}
	return service.Task{}, errTaskNotFound(id)
}

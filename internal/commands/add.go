package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/output"
	"tasker/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// taskFields holds the flags shared by add and create.
type taskFields struct {
	description string
	due         string
}

func (f *taskFields) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.due, "due", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	fields taskFields
}

// SetFields sets the description and due date (for testing).
func (c *AddCmd) SetFields(description, due string) {
	c.fields = taskFields{description: description, due: due}
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "tasker add [--description <text>] [--due <date>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.fields.register(fs)
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.fields, args, out, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	fields taskFields
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "tasker create [--description <text>] [--due <date>] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	c.fields.register(fs)
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, cfg, svc, c.fields, args, out, errOut)
}

// runAdd is the shared implementation for add and create commands.
func runAdd(ctx context.Context, cfg *config.Config, svc service.Service, fields taskFields, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	due := strings.TrimSpace(fields.due)
	if due != "" {
		if _, err := output.ParseDue(due); err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", due)
			return exitcode.UserError
		}
	}

	creds := sessionStore(cfg)
	created, err := svc.CreateTask(ctx, creds, service.Task{
		Title:       title,
		Description: fields.description,
		DueDate:     due,
	})
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "created task %d\n", created.IDValue())
	}

	// Re-read the list so a task the server accepted but did not store is noticed.
	tasks, err := svc.ListTasks(ctx, creds)
	if err != nil {
		cfg.Log().Debug("refresh after create failed", zap.Error(err))
		fmt.Fprintf(errOut, "warning: could not refresh tasks: %v\n", err)
		return exitcode.Success
	}
	for _, t := range tasks {
		if t.IDValue() == created.IDValue() {
			return exitcode.Success
		}
	}
	fmt.Fprintf(errOut, "warning: task %d is not in the task list\n", created.IDValue())
	return exitcode.Success
}

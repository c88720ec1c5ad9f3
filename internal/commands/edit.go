package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/output"
	"tasker/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that records whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optionalString
	description optionalString
	due         optionalString
	status      optionalString
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(v string) { _ = c.title.Set(v) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(v string) { _ = c.description.Set(v) }

// SetDue sets the new due date (for testing).
func (c *EditCmd) SetDue(v string) { _ = c.due.Set(v) }

// SetStatus sets the new status (for testing).
func (c *EditCmd) SetStatus(v string) { _ = c.status.Set(v) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "tasker edit [--title <text>] [--description <text>] [--due <date>] [--status <text>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.status, "status", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !c.title.set && !c.description.set && !c.due.set && !c.status.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --description, --due or --status)")
		return exitcode.UserError
	}
	if c.title.set && strings.TrimSpace(c.title.value) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}
	due := strings.TrimSpace(c.due.value)
	if c.due.set && due != "" {
		if _, err := output.ParseDue(due); err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", due)
			return exitcode.UserError
		}
	}

	creds := sessionStore(cfg)
	task, err := findTask(ctx, svc, creds, id)
	if err != nil {
		return report(errOut, err)
	}

	if c.title.set {
		task.Title = strings.TrimSpace(c.title.value)
	}
	if c.description.set {
		task.Description = c.description.value
	}
	if c.due.set {
		task.DueDate = due
	}
	if c.status.set {
		task.Status = service.String(c.status.value)
	}

	if _, err := svc.UpdateTask(ctx, creds, task); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

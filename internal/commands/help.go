package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasker help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  tasker                                             List all tasks
  tasker list [common flags] [--open]                List tasks (--open hides completed)
  tasker show [common flags] <id>
  tasker add [common flags] [--description <text>] [--due <date>] <title...>
  tasker create [common flags] [--description <text>] [--due <date>] <title...>
  tasker edit [common flags] [--title <text>] [--description <text>] [--due <date>] [--status <text>] <id>
  tasker done [common flags] <id>
  tasker undone [common flags] <id>
  tasker rm [common flags] <id>
  tasker login [common flags] --username <name> --password <pw>
  tasker login [common flags] --oauth
  tasker login [common flags] --token <jwt>
  tasker signup [common flags] --username <name> --email <addr> --password <pw>
  tasker logout [common flags]
  tasker whoami [common flags]
  tasker help
  tasker version

Due dates: 2006-01-02, 2006-01-02T15:04, 2006-01-02T15:04:05 or RFC 3339.

Common flags:
  --config <dir>   Override config directory
  --api-url <url>  Override the task API base URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`

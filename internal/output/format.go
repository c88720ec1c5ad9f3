// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tasker/internal/service"
)

const (
	// NoDueDate is shown for a task without a due date.
	NoDueDate = "No due date"

	// InvalidDueDate is shown for a due date that cannot be parsed.
	InvalidDueDate = "Invalid date format"

	// DueDisplayLayout is the layout used to show due dates.
	DueDisplayLayout = "Jan 2, 2006, 03:04 PM"
)

// dueLayouts are the accepted due-date input layouts, most specific first.
var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDue parses a due date in any accepted layout.
func ParseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date: %q", s)
}

// FormatDue returns the display form of a due date.
// Dates with a zone are shown in loc; dates without one are shown as written.
func FormatDue(due string, loc *time.Location) string {
	if strings.TrimSpace(due) == "" {
		return NoDueDate
	}
	t, err := ParseDue(due)
	if err != nil {
		return InvalidDueDate
	}
	if loc != nil && hasZone(due) {
		t = t.In(loc)
	}
	return t.Format(DueDisplayLayout)
}

func hasZone(s string) bool {
	if strings.HasSuffix(s, "Z") {
		return true
	}
	// Offsets follow the time part: ...T15:04:05+02:00
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return strings.ContainsAny(s[i:], "+-")
	}
	return false
}

// FormatTask formats a task line for the list.
// Format: "{ID:>6}  [x] {TITLE}  (due {DUE})\n", with "[ ]" for open tasks
// and the status appended in brackets when set.
func FormatTask(w io.Writer, task service.Task, loc *time.Location) {
	id := "-"
	if task.HasID() {
		id = fmt.Sprint(task.IDValue())
	}
	mark := " "
	if task.IsCompleted() {
		mark = "x"
	}
	line := fmt.Sprintf("%6s  [%s] %s  (due %s)", id, mark, normalizeTitle(task.Title), FormatDue(task.DueDate, loc))
	if task.Status != nil && strings.TrimSpace(*task.Status) != "" {
		line += " [" + *task.Status + "]"
	}
	fmt.Fprintln(w, line)
}

// FormatTaskDetail prints every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task, loc *time.Location) {
	fmt.Fprintf(w, "id:          %d\n", task.IDValue())
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	if task.Description != "" {
		fmt.Fprintf(w, "description: %s\n", task.Description)
	}
	fmt.Fprintf(w, "due:         %s\n", FormatDue(task.DueDate, loc))
	fmt.Fprintf(w, "completed:   %t\n", task.IsCompleted())
	if task.Status != nil {
		fmt.Fprintf(w, "status:      %s\n", *task.Status)
	}
}

// FormatProfile prints the signed-in user.
func FormatProfile(w io.Writer, p service.Profile) {
	fmt.Fprintf(w, "username: %s\n", p.Username)
	if p.Email != "" {
		fmt.Fprintf(w, "email:    %s\n", p.Email)
	}
	if len(p.Roles) > 0 {
		fmt.Fprintf(w, "roles:    %s\n", strings.Join(p.Roles, ", "))
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

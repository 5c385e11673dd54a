package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grovetools/zzz/pkg/install"
	"github.com/grovetools/zzz/pkg/manifest"
)

// ui prints prefixed status lines. It also reports load progress.
type ui struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

func newUI(out, errOut io.Writer, verbose bool) *ui {
	return &ui{out: out, errOut: errOut, verbose: verbose}
}

func (u *ui) line(w io.Writer, prefix string, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func (u *ui) Info(format string, args ...any) {
	u.line(u.out, infoStyle.Render(infoPrefix), format, args...)
}

func (u *ui) Warn(format string, args ...any) {
	u.line(u.errOut, warningStyle.Render(warnPrefix), format, args...)
}

func (u *ui) Error(format string, args ...any) {
	u.line(u.errOut, errorStyle.Render(errorPrefix), format, args...)
}

func (u *ui) Success(format string, args ...any) {
	u.line(u.out, successStyle.Render(successPrefix), format, args...)
}

// Help prints a hint under an error.
func (u *ui) Help(hint string) {
	fmt.Fprintf(u.errOut, "    %s %s\n", faintStyle.Render("Help:"), hint)
}

// Plan lists the declared tools before a load.
func (u *ui) Plan(project string, declared []manifest.Tool) {
	if len(declared) == 0 {
		u.Info("%s declares no tools", toolNameStyle.Render(project))
		return
	}
	u.Info("%s declares %d %s:", toolNameStyle.Render(project), len(declared), plural(len(declared), "tool", "tools"))
	for _, t := range declared {
		fmt.Fprintf(u.out, "    - %s %s %s\n", toolNameStyle.Render(t.Name), methodStyle.Render(string(t.Method)), faintStyle.Render(t.Link))
	}
}

func (u *ui) Skipped(tool manifest.Tool, suggestion string) {
	msg := fmt.Sprintf("%s is not in the dependency cache, skipping", tool.Name)
	if suggestion != "" && suggestion != tool.Name {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	u.Warn("%s", msg)
}

func (u *ui) Started(tool manifest.Tool) {
	if u.verbose {
		u.Info("Installing %s via %s", tool.Name, tool.Method)
	}
}

func (u *ui) Finished(out install.Outcome) {
	if out.Err != nil {
		u.Error("%s failed: %v", toolNameStyle.Render(out.Tool.Name), out.Err)
		return
	}
	u.Success("%s installed %s", toolNameStyle.Render(out.Tool.Name), faintStyle.Render("("+out.Duration.Round(time.Millisecond).String()+")"))
}

// reporter adapts ui to load.Reporter, whose Warn takes a plain message.
type reporter struct {
	*ui
}

func (r reporter) Warn(msg string) {
	r.ui.Warn("%s", msg)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

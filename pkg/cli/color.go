package cli

import (
	"io"
	"os"
	"regexp"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/eggc/internal/diagnostics"
)

const (
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

var errorTag = regexp.MustCompile(`error\[[A-Z]\d{3}\]`)

// colorEnabled reports whether w is a terminal that should get ANSI colors.
func colorEnabled(w io.Writer) bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// formatError renders err for w, highlighting the diagnostic tag when w is a
// color terminal.
func formatError(w io.Writer, err error) string {
	msg := err.Error()
	if diagnostics.CodeOf(err) == "" {
		msg = "error: " + msg
	}
	if !colorEnabled(w) {
		return msg
	}
	if diagnostics.CodeOf(err) == "" {
		return ansiBold + ansiRed + "error" + ansiReset + msg[len("error"):]
	}
	return errorTag.ReplaceAllStringFunc(msg, func(tag string) string {
		return ansiBold + ansiRed + tag + ansiReset
	})
}

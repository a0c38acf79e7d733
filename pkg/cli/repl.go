package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/parser"
	"github.com/funvibe/eggc/pkg/eggc"
)

const (
	historyFile = ".eggc_history"
	promptMain  = "egg> "
	promptCont  = "...> "
)

const replHelp = `Enter an expression to see its JavaScript.
  :run <expr>   compile and execute
  :funcs        list names defined as functions
  :quit         leave
Definitions persist for the whole session.
`

// prompter reads one line of input after showing a prompt.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func handleRepl(inv *invocation) bool {
	if inv.command() != "repl" {
		return false
	}

	sess, err := inv.session()
	if err != nil {
		inv.fail(err)
		return true
	}
	defer sess.Close()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(inv.stdout, "eggc %s, %s backend. Type :help for commands.\n", config.Version, sess.Backend())
	repl(sess, ln, inv.stdout, inv.stderr, ln.AppendHistory)
	return true
}

// repl reads expressions until EOF or :quit. remember is called with every
// complete input.
func repl(sess *eggc.Session, in prompter, stdout, stderr io.Writer, remember func(string)) {
	for {
		code, ok := readExpression(in)
		if !ok {
			fmt.Fprintln(stdout)
			return
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		remember(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(code, ":") {
			if replCommand(sess, code, stdout, stderr) {
				return
			}
			continue
		}

		js, err := sess.Compile(code)
		if err != nil {
			fmt.Fprintln(stderr, formatError(stderr, err))
			continue
		}
		fmt.Fprintln(stdout, js)
	}
}

// replCommand runs a ':' command and reports whether the loop should end.
func replCommand(sess *eggc.Session, line string, stdout, stderr io.Writer) (exit bool) {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(stdout, replHelp)
	case ":funcs":
		names := sess.Functions()
		if len(names) == 0 {
			fmt.Fprintln(stdout, "(none)")
		} else {
			fmt.Fprintln(stdout, strings.Join(names, " "))
		}
	case ":run":
		res, err := sess.Run(context.Background(), arg)
		if res != nil {
			fmt.Fprint(stdout, res.Output)
		}
		if err != nil {
			fmt.Fprintln(stderr, formatError(stderr, err))
			return false
		}
		if res.Value != nil {
			fmt.Fprintln(stdout, formatValue(res.Value))
		}
	default:
		fmt.Fprintf(stdout, "unknown command %s. Type :help for commands.\n", name)
	}
	return false
}

// readExpression keeps prompting while the input so far is an unfinished
// expression.
func readExpression(in prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := strings.TrimSpace(b.String())
		if src == "" || strings.HasPrefix(src, ":") || !parser.Incomplete(src) {
			return b.String(), true
		}
	}
}

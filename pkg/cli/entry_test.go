package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runMain(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := Main(args, strings.NewReader(stdin), &stdout, &stderr)
	return status, stdout.String(), stderr.String()
}

func TestHelpAndVersion(t *testing.T) {
	chdir(t, t.TempDir())

	status, out, _ := runMain(t, "", "help")
	if status != 0 || !strings.Contains(out, "Usage:") {
		t.Errorf("help: status=%d out=%q", status, out)
	}
	status, out, _ = runMain(t, "")
	if status != 2 || !strings.Contains(out, "Usage:") {
		t.Errorf("no args: status=%d out=%q", status, out)
	}
	status, out, _ = runMain(t, "", "version")
	if status != 0 || !strings.HasPrefix(out, "eggc ") {
		t.Errorf("version: status=%d out=%q", status, out)
	}
	status, _, errOut := runMain(t, "", "frobnicate")
	if status != 2 || !strings.Contains(errOut, `unknown command "frobnicate"`) {
		t.Errorf("unknown: status=%d err=%q", status, errOut)
	}
}

func TestCompileCommand(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name   string
		stdin  string
		args   []string
		status int
		out    string
		errOut string
	}{
		{
			name: "inline",
			args: []string{"compile", "-e", "if(true, 1, 2)"},
			out:  "if (true !== false) {\n  return 1\n} else {\n  return 2\n}\n",
		},
		{
			name:  "stdin",
			stdin: "print(+(1, 2))",
			args:  []string{"compile"},
			out:   "console.log(1 + 2)\n",
		},
		{
			name:   "undefined",
			args:   []string{"compile", "-e", "nope"},
			status: 1,
			errOut: "1:1: error[C001]: undefined binding: nope",
		},
		{
			name:   "missing file",
			args:   []string{"compile", "missing.egg"},
			status: 1,
			errOut: "error: Error reading input",
		},
		{
			name:   "dangling -e",
			args:   []string{"compile", "-e"},
			status: 1,
			errOut: "-e needs an argument",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out, errOut := runMain(t, tt.stdin, tt.args...)
			if status != tt.status {
				t.Errorf("status = %d, want %d (stderr %q)", status, tt.status, errOut)
			}
			if tt.out != "" && out != tt.out {
				t.Errorf("stdout = %q, want %q", out, tt.out)
			}
			if tt.errOut != "" && !strings.Contains(errOut, tt.errOut) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.errOut)
			}
		})
	}
}

func TestCompileFileToOutput(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("sq.egg", []byte("# square\ndefine(sq, fun(x, *(x, x)))\n"), 0644); err != nil {
		t.Fatal(err)
	}

	status, out, errOut := runMain(t, "", "compile", "sq.egg", "-o", "sq.js")
	if status != 0 {
		t.Fatalf("status = %d, stderr %q", status, errOut)
	}
	if out != "Compiled sq.egg -> sq.js\n" {
		t.Errorf("stdout = %q", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "sq.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "var sq = function(x) {\n") {
		t.Errorf("sq.js = %q", data)
	}
}

func TestCompileErrorNamesFile(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("bad.egg", []byte("\n\n  +(1,"), 0644); err != nil {
		t.Fatal(err)
	}
	status, _, errOut := runMain(t, "", "compile", "bad.egg")
	if status != 1 || !strings.HasPrefix(errOut, "bad.egg:3:") || !strings.Contains(errOut, "error[P001]") {
		t.Errorf("status=%d stderr=%q", status, errOut)
	}
}

func TestRunCommand(t *testing.T) {
	chdir(t, t.TempDir())

	status, out, errOut := runMain(t, "", "run", "-e", "do(print(5), print(6))")
	if status != 0 || out != "5\n6\n" {
		t.Errorf("print: status=%d out=%q err=%q", status, out, errOut)
	}

	status, out, _ = runMain(t, "", "run", "-e", "array(1, 2)")
	if status != 0 || out != "[1,2]\n" {
		t.Errorf("value: status=%d out=%q", status, out)
	}

	status, out, errOut = runMain(t, "", "run", "-e", "do(print(1), define(f, fun(a, a)), f())")
	if status != 1 {
		t.Errorf("arity: status = %d", status)
	}
	if out != "1\n" {
		t.Errorf("arity: output before the failure = %q", out)
	}
	if !strings.Contains(errOut, "error[R001]") {
		t.Errorf("arity: stderr = %q", errOut)
	}
}

func TestConfigDiscovery(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eggc.yaml"), []byte("output:\n  indent: \"\\t\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	chdir(t, sub)

	status, out, errOut := runMain(t, "", "compile", "-e", "while(true, print(1))")
	if status != 0 {
		t.Fatalf("status=%d stderr=%q", status, errOut)
	}
	if out != "while (true !== false) {\n\tconsole.log(1)\n}\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eggc.yaml"), []byte("run:\n  backend: rhino\n"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	status, _, errOut := runMain(t, "", "compile", "-e", "1")
	if status != 1 || !strings.Contains(errOut, "unknown backend") {
		t.Errorf("status=%d stderr=%q", status, errOut)
	}
}

func TestFormatErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	if got := formatError(&buf, errors.New("boom")); got != "error: boom" {
		t.Errorf("got %q", got)
	}
	if colorEnabled(io.Discard) {
		t.Error("a non-file writer is never a terminal")
	}
}

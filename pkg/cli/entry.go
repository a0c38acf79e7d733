package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/funvibe/eggc/internal/backend"
	"github.com/funvibe/eggc/internal/cache"
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/server"
	"github.com/funvibe/eggc/pkg/eggc"
)

const usage = `eggc translates Egg programs to JavaScript.

Usage:
  eggc compile <file> [-o <out>]   print (or write) the generated JavaScript
  eggc compile -e <source>
  eggc run <file>                  compile and execute, printing output and result
  eggc run -e <source>
  eggc serve [--addr <host:port>]  serve the Translator gRPC API
  eggc repl                        interactive session
  eggc version
  eggc help

With no file and no -e, source is read from stdin.
Flags: -debug enables logging to stderr.
Configuration is read from the nearest eggc.yaml above the working directory.
`

// invocation is one run of the command line: its arguments, streams and
// exit status.
type invocation struct {
	args   []string // args[0] is the command name
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	status int

	cfg     *config.Config
	cfgPath string
}

// Run is the entry point of cmd/eggc.
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Main runs the command line in args (without the program name) and returns
// the exit status.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	log.SetFlags(0)
	log.SetOutput(io.Discard)

	inv := &invocation{stdin: stdin, stdout: stdout, stderr: stderr}
	for _, arg := range args {
		if arg == "-debug" || arg == "--debug" {
			log.SetOutput(stderr)
			eggc.Verbose = true
			continue
		}
		inv.args = append(inv.args, arg)
	}

	if handleHelp(inv) || handleVersion(inv) {
		return inv.status
	}

	if err := inv.loadConfig(); err != nil {
		inv.fail(err)
		return inv.status
	}

	switch {
	case handleCompile(inv):
	case handleRun(inv):
	case handleServe(inv):
	case handleRepl(inv):
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", inv.args[0], usage)
		inv.status = 2
	}
	return inv.status
}

func (inv *invocation) loadConfig() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, path, err := config.Discover(wd)
	if err != nil {
		return err
	}
	if path != "" {
		log.Printf("config: %s", path)
	}
	inv.cfg, inv.cfgPath = cfg, path
	return nil
}

func (inv *invocation) command() string {
	if len(inv.args) == 0 {
		return ""
	}
	return inv.args[0]
}

// fail reports err on stderr and sets a failing exit status.
func (inv *invocation) fail(err error) {
	fmt.Fprintln(inv.stderr, formatError(inv.stderr, err))
	inv.status = 1
}

func (inv *invocation) session() (*eggc.Session, error) {
	return eggc.FromConfig(inv.cfg)
}

func handleHelp(inv *invocation) bool {
	switch inv.command() {
	case "", "help", "-help", "--help", "-h":
		fmt.Fprint(inv.stdout, usage)
		if inv.command() == "" {
			inv.status = 2
		}
		return true
	}
	return false
}

func handleVersion(inv *invocation) bool {
	switch inv.command() {
	case "version", "-version", "--version", "-v":
		fmt.Fprintln(inv.stdout, "eggc "+config.Version)
		return true
	}
	return false
}

// source reads the program named by the command's arguments: -e <src>, a
// file path, or stdin. path is empty unless the program came from a file.
func (inv *invocation) source(rest []string) (src, path string, err error) {
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "-e":
			if i+1 >= len(rest) {
				return "", "", fmt.Errorf("-e needs an argument")
			}
			return rest[i+1], "", nil
		case !strings.HasPrefix(rest[i], "-"):
			data, err := os.ReadFile(rest[i])
			if err != nil {
				return "", "", fmt.Errorf("Error reading input: %w", err)
			}
			return string(data), rest[i], nil
		case rest[i] == "-o":
			i++
		}
	}
	data, err := io.ReadAll(inv.stdin)
	if err != nil {
		return "", "", fmt.Errorf("Error reading input: %w", err)
	}
	return string(data), "", nil
}

// flagValue returns the value following name in rest.
func flagValue(rest []string, name string) string {
	for i := 0; i+1 < len(rest); i++ {
		if rest[i] == name {
			return rest[i+1]
		}
	}
	return ""
}

func handleCompile(inv *invocation) bool {
	if inv.command() != "compile" {
		return false
	}
	rest := inv.args[1:]

	src, path, err := inv.source(rest)
	if err != nil {
		inv.fail(err)
		return true
	}
	sess, err := inv.session()
	if err != nil {
		inv.fail(err)
		return true
	}
	defer sess.Close()

	code, err := compileSource(sess, src, path)
	if err != nil {
		inv.fail(err)
		return true
	}

	out := flagValue(rest, "-o")
	if out == "" {
		fmt.Fprintln(inv.stdout, code)
		return true
	}
	if err := os.WriteFile(out, []byte(code+"\n"), 0644); err != nil {
		inv.fail(fmt.Errorf("Error writing %s: %w", out, err))
		return true
	}
	fmt.Fprintf(inv.stdout, "Compiled %s -> %s\n", displayName(path), out)
	return true
}

func compileSource(sess *eggc.Session, src, path string) (string, error) {
	if path != "" {
		return sess.CompileFile(path)
	}
	return sess.Compile(src)
}

func handleRun(inv *invocation) bool {
	if inv.command() != "run" {
		return false
	}

	src, path, err := inv.source(inv.args[1:])
	if err != nil {
		inv.fail(err)
		return true
	}
	sess, err := inv.session()
	if err != nil {
		inv.fail(err)
		return true
	}
	defer sess.Close()
	log.Printf("backend: %s", sess.Backend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *eggc.Result
	if path != "" {
		res, err = sess.RunFile(ctx, path)
	} else {
		res, err = sess.Run(ctx, src)
	}
	if res != nil {
		fmt.Fprint(inv.stdout, res.Output)
	}
	if err != nil {
		inv.fail(err)
		return true
	}
	if res.Value != nil {
		fmt.Fprintln(inv.stdout, formatValue(res.Value))
	}
	return true
}

func handleServe(inv *invocation) bool {
	if inv.command() != "serve" {
		return false
	}
	addr := inv.cfg.Server.Addr
	if a := flagValue(inv.args[1:], "--addr"); a != "" {
		addr = a
	}

	factory, closeShared, err := sessionFactory(inv.cfg)
	if err != nil {
		inv.fail(err)
		return true
	}
	defer closeShared()

	srv, err := server.New(factory)
	if err != nil {
		inv.fail(err)
		return true
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		inv.fail(err)
		return true
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		srv.Stop()
	}()

	fmt.Fprintf(inv.stdout, "eggc: serving %s on %s\n", server.ServiceName, lis.Addr())
	if err := srv.Serve(lis); err != nil {
		inv.fail(err)
	}
	return true
}

// sessionFactory builds sessions sharing one executor and one cache
// connection.
func sessionFactory(cfg *config.Config) (server.SessionFactory, func(), error) {
	exec, err := backend.New(cfg.Run)
	if err != nil {
		return nil, nil, err
	}
	opts := []eggc.Option{
		eggc.WithIndent(cfg.Output.Indent),
		eggc.WithExecutor(exec),
		eggc.WithTimeout(cfg.Run.Timeout),
	}
	closeShared := func() {}
	if cfg.Cache.Path != "" {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, eggc.WithCache(c))
		closeShared = func() { c.Close() }
	}
	return func() (*eggc.Session, error) {
		return eggc.NewSession(opts...), nil
	}, closeShared, nil
}

// formatValue renders a program result the way JSON would.
func formatValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func displayName(path string) string {
	if path == "" {
		return "<input>"
	}
	return filepath.Base(path)
}

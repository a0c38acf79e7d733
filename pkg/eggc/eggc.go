// Package eggc is the embedding API of the Egg to JavaScript translator.
//
// A Session is one compilation context: functions defined by one Compile or
// Run call are callable by name from later calls on the same Session.
// The package-level Compile and Run use a fresh Session every time.
//
//	s := eggc.NewSession()
//	js, err := s.Compile(`define(sq, fun(x, *(x, x)))`)
//	js, err = s.Compile(`sq(4)`) // "sq(4)", not an undefined binding
//
// Each Run executes in a fresh runtime, so only names carry over between
// calls, not the values computed by earlier runs.
package eggc

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/funvibe/eggc/internal/backend"
	"github.com/funvibe/eggc/internal/cache"
	"github.com/funvibe/eggc/internal/compiler"
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/parser"
	"github.com/funvibe/eggc/internal/pipeline"
	"github.com/funvibe/eggc/internal/primitives"
)

// Result is the outcome of Run.
type Result struct {
	// Value is what the program returned: nil, bool, float64, string,
	// []interface{} or map[string]interface{}.
	Value interface{}

	// Output is the text written by print, one line per call.
	Output string

	// Code is the JavaScript that was executed.
	Code string
}

// Session is not safe for concurrent use.
type Session struct {
	compiler *compiler.Compiler
	indent   string
	executor backend.Executor
	cache    *cache.Cache
	timeout  time.Duration
	closers  []func() error
}

type Option func(*Session)

// WithIndent sets the indentation unit of generated code.
func WithIndent(indent string) Option {
	return func(s *Session) { s.indent = indent }
}

// WithExecutor sets the backend used by Run. The default is the embedded
// goja engine.
func WithExecutor(e backend.Executor) Option {
	return func(s *Session) { s.executor = e }
}

// WithCache makes Compile consult c before compiling.
func WithCache(c *cache.Cache) Option {
	return func(s *Session) { s.cache = c }
}

// WithTimeout bounds every Run. Zero means no limit beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

func NewSession(opts ...Option) *Session {
	s := &Session{indent: config.DefaultIndent}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = backend.NewGoja()
	}
	s.compiler = compiler.New(
		compiler.WithPrimitives(primitives.Library()),
		compiler.WithIndent(s.indent),
	)
	return s
}

// FromConfig builds a Session from a loaded eggc.yaml. The Session owns the
// cache it opens; call Close when done.
func FromConfig(cfg *config.Config, opts ...Option) (*Session, error) {
	exec, err := backend.New(cfg.Run)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithIndent(cfg.Output.Indent),
		WithExecutor(exec),
		WithTimeout(cfg.Run.Timeout),
	}
	var c *cache.Cache
	if cfg.Cache.Path != "" {
		c, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		base = append(base, WithCache(c))
	}
	s := NewSession(append(base, opts...)...)
	if c != nil {
		s.closers = append(s.closers, c.Close)
	}
	return s, nil
}

// Close releases resources opened by FromConfig.
func (s *Session) Close() error {
	var first error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// Functions returns the names registered as functions so far, sorted.
func (s *Session) Functions() []string {
	return s.compiler.Functions().Names()
}

// Backend names the executor used by Run.
func (s *Session) Backend() string {
	return s.executor.Name()
}

// Compile translates source to JavaScript.
func (s *Session) Compile(source string) (string, error) {
	return s.compile("", source)
}

// CompileFile translates the file at path. Diagnostics carry the path.
func (s *Session) CompileFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return s.compile(path, string(source))
}

// Run compiles source, makes its value the program's result and executes
// it. When the program throws, the returned Result still carries the output
// printed before the failure.
func (s *Session) Run(ctx context.Context, source string) (*Result, error) {
	return s.run(ctx, "", source)
}

func (s *Session) RunFile(ctx context.Context, path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.run(ctx, path, string(source))
}

func (s *Session) compile(path, source string) (string, error) {
	// Root rebindings are not part of the key and a replayed entry would not
	// redo them, so the cache is bypassed from the first one on.
	useCache := s.cache != nil && s.compiler.RootChanges() == 0

	var key string
	if useCache {
		key = cache.Key(s.indent, s.Functions(), source)
		if out, ok := s.cached(key); ok {
			return out, nil
		}
	}

	before := s.Functions()
	pctx := pipeline.NewPipelineContext(source)
	pctx.FilePath = path
	pctx = pipeline.New(
		&parser.ParserProcessor{},
		&compiler.Processor{Compiler: s.compiler},
	).Run(pctx)
	if err := pctx.Err(); err != nil {
		return "", err
	}

	if useCache && s.compiler.RootChanges() == 0 {
		entry := cache.Entry{Output: pctx.Output, Functions: added(before, s.Functions())}
		if err := s.cache.Put(key, entry); err != nil {
			log.Printf("cache: %v", err)
		}
	}
	return pctx.Output, nil
}

// cached looks key up and, on a hit, registers the functions the first
// compile registered.
func (s *Session) cached(key string) (string, bool) {
	entry, ok, err := s.cache.Get(key)
	if err != nil {
		log.Printf("cache: %v", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	logf("cache: hit %s", key[:12])
	for _, name := range entry.Functions {
		s.compiler.Functions().Add(name)
	}
	return entry.Output, true
}

func (s *Session) run(ctx context.Context, path, source string) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pctx := pipeline.NewPipelineContext(source)
	pctx.Context = ctx
	pctx.FilePath = path
	pctx = pipeline.New(
		&parser.ParserProcessor{},
		&compiler.Processor{Compiler: s.compiler, ImplicitReturn: true},
		backend.NewExecutionProcessor(s.executor),
	).Run(pctx)

	if pctx.Program == nil {
		return nil, pctx.Err()
	}
	res := &Result{Value: pctx.Result, Output: pctx.Console, Code: pctx.Output}
	return res, pctx.Err()
}

// added returns the names in after that are not in before. Both are sorted.
func added(before, after []string) []string {
	var out []string
	i := 0
	for _, name := range after {
		for i < len(before) && before[i] < name {
			i++
		}
		if i < len(before) && before[i] == name {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Compile translates source in a fresh Session.
func Compile(source string) (string, error) {
	return NewSession().Compile(source)
}

// Run executes source in a fresh Session on the embedded engine.
func Run(ctx context.Context, source string) (*Result, error) {
	return NewSession().Run(ctx, source)
}

package eggc_test

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/funvibe/eggc/internal/cache"
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/pkg/eggc"
)

func TestCompileIf(t *testing.T) {
	got, err := eggc.Compile(`if(true, 1, 2)`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := "if (true !== false) {\n  return 1\n} else {\n  return 2\n}"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCompileDefineThenReference(t *testing.T) {
	s := eggc.NewSession()
	for i := 0; i < 2; i++ {
		got, err := s.Compile(`do(define(x,10), x)`)
		if err != nil {
			t.Fatalf("compile %d: %v", i, err)
		}
		if got != "var x = 10\nx" {
			t.Errorf("compile %d: got %q", i, got)
		}
	}
	if names := s.Functions(); len(names) != 0 {
		t.Errorf("x must not be registered as a function, registry = %v", names)
	}
}

func TestSessionSharesRegistry(t *testing.T) {
	s := eggc.NewSession()
	def, err := s.Compile(`define(f, fun(a,b, +(a,b)))`)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	wantDef := "var f = function(a, b) {\n" +
		"  if (arguments.length != 2) {\n" +
		"    throw new TypeError(\"Wrong number of arguments\")\n" +
		"  }\n" +
		"  return a + b\n" +
		"}"
	if def != wantDef {
		t.Errorf("define: got:\n%s\nwant:\n%s", def, wantDef)
	}
	if !reflect.DeepEqual(s.Functions(), []string{"f"}) {
		t.Errorf("registry = %v", s.Functions())
	}

	// The registry outlives the compile that filled it.
	call, err := s.Compile(`f(1,2)`)
	if err != nil {
		t.Fatalf("call in same session: %v", err)
	}
	if call != "f(1, 2)" {
		t.Errorf("call: got %q", call)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	if _, err := eggc.Compile(`define(f, fun(a,b, +(a,b)))`); err != nil {
		t.Fatal(err)
	}
	_, err := eggc.Compile(`f(1,2)`)
	if diagnostics.KindOf(err) != diagnostics.UndefinedBinding {
		t.Fatalf("expected UndefinedBinding from a fresh session, got %v", err)
	}
}

func TestSetLooksOneFrameUp(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ok     bool
	}{
		{"current frame", `do(define(x, 1), set(x, 2))`, true},
		{"parent frame", `do(define(x, 1), fun(set(x, 2)))`, true},
		{"two frames up", `do(define(x, 1), fun(fun(set(x, 2))))`, false},
		{"never defined", `set(y, 2)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eggc.Compile(tt.source)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if diagnostics.KindOf(err) != diagnostics.UnresolvedAssignmentTarget {
				t.Fatalf("expected UnresolvedAssignmentTarget, got %v", err)
			}
			if diagnostics.CodeOf(err) != diagnostics.ErrC003 {
				t.Errorf("code = %s", diagnostics.CodeOf(err))
			}
		})
	}
}

func TestMissingCloseParen(t *testing.T) {
	_, err := eggc.Compile(`abc(1,2`)
	if diagnostics.KindOf(err) != diagnostics.SyntaxFailure {
		t.Fatalf("expected SyntaxFailure, got %v", err)
	}
	if diagnostics.CodeOf(err) != diagnostics.ErrP002 {
		t.Errorf("code = %s, want P002", diagnostics.CodeOf(err))
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		source string
		value  interface{}
		output string
	}{
		{"arithmetic", `+(1, *(2, 3))`, float64(7), ""},
		{"nested arithmetic joins as text", `*(+(1, 2), 3)`, float64(7), ""},
		{"missing operand is undefined", `==(1)`, false, ""},
		{"print without operand", `print()`, nil, "undefined\n"},
		{"comparison", `<(1, 2)`, true, ""},
		{"if", `if(>(1, 2), 10, 20)`, float64(20), ""},
		{"zero is true", `if(0, "1", "2")`, float64(1), ""},
		{"array", `element(array(5, 6, 7), 1)`, float64(6), ""},
		{"length", `length(array(1, 2, 3))`, float64(3), ""},
		{"print", `print(+(1, 2))`, nil, "3\n"},
		{"while false", `while(false, print("x"))`, nil, ""},
		{"loop", `do(define(i, 0), while(<(i, 3), do(print(i), set(i, +(i, 1)))))`, nil, "0\n1\n2\n"},
		{
			"recursion",
			`fun(do(define(fact, fun(n, if(<(n, 2), 1, *(n, fact(-(n, 1)))))), fact(5)))()`,
			float64(120), "",
		},
		{
			"closure call",
			`fun(x, fun(y, +(x, y)))(1)(2)`,
			float64(3), "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := eggc.Run(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !reflect.DeepEqual(res.Value, tt.value) {
				t.Errorf("value = %#v, want %#v\ncode:\n%s", res.Value, tt.value, res.Code)
			}
			if res.Output != tt.output {
				t.Errorf("output = %q, want %q", res.Output, tt.output)
			}
		})
	}
}

func TestRunArityError(t *testing.T) {
	res, err := eggc.Run(context.Background(), `do(print(1), define(f, fun(a, a)), f(1, 2))`)
	if diagnostics.KindOf(err) != diagnostics.RuntimeFailure {
		t.Fatalf("expected RuntimeFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Wrong number of arguments") {
		t.Errorf("error = %v", err)
	}
	if res == nil || res.Output != "1\n" {
		t.Errorf("output before the failure should be kept, got %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	s := eggc.NewSession(eggc.WithTimeout(50 * time.Millisecond))
	_, err := s.Run(context.Background(), `do(define(i, 0), while(true, set(i, +(i, 1))))`)
	if diagnostics.KindOf(err) != diagnostics.RuntimeFailure {
		t.Fatalf("expected RuntimeFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("error = %v", err)
	}
}

func TestCompileErrorStopsRun(t *testing.T) {
	res, err := eggc.Run(context.Background(), `nope(1)`)
	if diagnostics.KindOf(err) != diagnostics.UndefinedBinding {
		t.Fatalf("expected UndefinedBinding, got %v", err)
	}
	if res != nil {
		t.Errorf("nothing should run, got %+v", res)
	}
}

func TestIndent(t *testing.T) {
	s := eggc.NewSession(eggc.WithIndent("\t"))
	got, err := s.Compile(`while(true, print(1))`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "while (true !== false) {\n\tconsole.log(1)\n}" {
		t.Errorf("got %q", got)
	}
}

func TestCacheReplaysRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := cache.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	src := `define(sq, fun(x, *(x, x)))`
	first := eggc.NewSession(eggc.WithCache(c))
	want, err := first.Compile(src)
	if err != nil {
		t.Fatal(err)
	}

	second := eggc.NewSession(eggc.WithCache(c))
	got, err := second.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("cached output differs:\n%s\nvs\n%s", got, want)
	}
	if !reflect.DeepEqual(second.Functions(), []string{"sq"}) {
		t.Errorf("registry after a cache hit = %v", second.Functions())
	}
	if call, err := second.Compile(`sq(3)`); err != nil || call != "sq(3)" {
		t.Errorf("call after a cache hit: %q, %v", call, err)
	}
	if n, _ := c.Len(); n != 2 {
		t.Errorf("cache entries = %d, want 2", n)
	}
}

func TestCacheBypassedAfterRootRebinding(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	warm := eggc.NewSession(eggc.WithCache(c))
	if _, err := warm.Compile(`+(1, 2)`); err != nil {
		t.Fatal(err)
	}

	s := eggc.NewSession(eggc.WithCache(c))
	if _, err := s.Compile(`set(+, 1)`); err != nil {
		t.Fatal(err)
	}
	out, err := s.Compile(`+(1, 2)`)
	if diagnostics.CodeOf(err) != diagnostics.ErrC002 {
		t.Errorf("compile after rebinding + = %q, %v; want C002", out, err)
	}

	// The rebinding itself was not stored: replaying it would not rebind.
	fresh := eggc.NewSession(eggc.WithCache(c))
	if _, err := fresh.Compile(`set(+, 1)`); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.Len(); n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Indent = "    "
	cfg.Cache.Path = filepath.Join(t.TempDir(), "c.db")

	s, err := eggc.FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer s.Close()

	if s.Backend() != config.BackendGoja {
		t.Errorf("backend = %s", s.Backend())
	}
	got, err := s.Compile(`while(true, print(1))`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "while (true !== false) {\n    console.log(1)\n}" {
		t.Errorf("got %q", got)
	}
}

func TestCompileFileReportsPath(t *testing.T) {
	_, err := eggc.NewSession().CompileFile(filepath.Join("testdata", "broken.egg"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), filepath.Join("testdata", "broken.egg")+":2:") {
		t.Errorf("error = %v", err)
	}
}

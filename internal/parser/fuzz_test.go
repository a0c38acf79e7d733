package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/internal/parser"
	"github.com/funvibe/eggc/internal/prettyprinter"
)

// FuzzParse checks that parsing never panics, that every failure is a
// syntax diagnostic, and that printed trees parse back to themselves.
func FuzzParse(f *testing.F) {
	for _, tc := range snapshotCases {
		f.Add(tc.input)
	}
	f.Add("abc(1,2")
	f.Add("#\n\n1")
	f.Add(`f("a,b)c", 007)`)
	f.Add("12-(3)")

	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > 2000 {
			return
		}
		node, err := parser.Parse(src)
		if err != nil {
			de, ok := err.(*diagnostics.DiagnosticError)
			if !ok {
				t.Fatalf("non-diagnostic error %T: %v", err, err)
			}
			if !strings.HasPrefix(string(de.Code), "P") {
				t.Fatalf("parser produced %s", de.Code)
			}
			return
		}

		printed := prettyprinter.Print(node)
		again, err := parser.Parse(printed)
		if err != nil {
			t.Fatalf("printed form %q of %q does not parse: %v", printed, src, err)
		}
		if a, b := prettyprinter.Tree(node), prettyprinter.Tree(again); a != b {
			t.Fatalf("round trip changed the tree for %q:\n%s\nvs\n%s", src, a, b)
		}
	})
}

package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/eggc/internal/ast"
	"github.com/funvibe/eggc/internal/diagnostics"
)

// spacePattern matches one whitespace character or a comment. A comment is
// '#', any whitespace (newlines included) and then the rest of that line.
var spacePattern = regexp.MustCompile(`[\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}]|#[\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}]*[^\n\r\x{2028}\x{2029}]*`)

// excerptLen bounds how much of the remaining input an error message quotes.
const excerptLen = 40

// Parser turns Egg source into a single AST expression.
//
// Whitespace and comments are removed from the whole input before anything
// is read, string literal contents included. Stripping is idempotent, so one
// pass up front is the same as stripping before every token.
type Parser struct {
	source     string
	text       string // source with whitespace and comments removed
	offsets    []int  // offsets[i] is the source offset of text[i]; one extra entry for the end
	lineStarts []int
}

func New(source string) *Parser {
	text, offsets := skipSpace(source)
	p := &Parser{source: source, text: text, offsets: offsets, lineStarts: []int{0}}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}
	return p
}

// Parse parses exactly one expression from source.
func Parse(source string) (ast.Node, error) {
	return New(source).Parse()
}

// Parse parses one expression and fails if anything but whitespace and
// comments follows it.
func (p *Parser) Parse() (ast.Node, error) {
	expr, pos, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if pos < len(p.text) {
		return nil, diagnostics.NewError(diagnostics.ErrP003, p.position(pos),
			"unexpected text after program: %s", p.excerpt(pos))
	}
	return expr, nil
}

// Incomplete reports whether source fails to parse only because it ends
// too early, as in an unclosed argument list. Interactive readers use it to
// ask for another line.
func Incomplete(source string) bool {
	p := New(source)
	_, pos, err := p.parseExpression(0)
	return err != nil && pos >= len(p.text)
}

// skipSpace removes every whitespace run and comment from text and returns
// the remainder together with the source offset of each remaining byte.
func skipSpace(text string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(text)+1)
	last := 0
	keep := func(from, to int) {
		b.WriteString(text[from:to])
		for i := from; i < to; i++ {
			offsets = append(offsets, i)
		}
	}
	for _, loc := range spacePattern.FindAllStringIndex(text, -1) {
		keep(last, loc[0])
		last = loc[1]
	}
	keep(last, len(text))
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// parseExpression reads a string, a number or a word at pos, in that order,
// and then any call suffixes.
func (p *Parser) parseExpression(pos int) (ast.Node, int, error) {
	rest := p.text[pos:]
	at := p.position(pos)

	if strings.HasPrefix(rest, `"`) {
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			expr := &ast.Value{Position: at, Kind: ast.StringLiteral, Str: rest[1 : end+1]}
			return p.parseApply(expr, pos+end+2)
		}
	}

	if n := digitRun(rest); n > 0 && (n == len(rest) || !isWordChar(rest[n])) {
		// Overflow yields ±Inf, which prints as Infinity like the host does.
		num, _ := strconv.ParseFloat(rest[:n], 64)
		expr := &ast.Value{Position: at, Kind: ast.NumberLiteral, Num: num, Raw: rest[:n]}
		return p.parseApply(expr, pos+n)
	}

	if n := wordRun(rest); n > 0 {
		expr := &ast.Word{Position: at, Name: rest[:n]}
		return p.parseApply(expr, pos+n)
	}

	return nil, pos, diagnostics.NewError(diagnostics.ErrP001, at, "unexpected syntax: %s", p.excerpt(pos))
}

// parseApply wraps expr in a call for every parenthesized argument list that
// follows it, so f(a)(b) becomes Closure(Apply(f, a), b).
func (p *Parser) parseApply(expr ast.Node, pos int) (ast.Node, int, error) {
	for pos < len(p.text) && p.text[pos] == '(' {
		pos++
		var args []ast.Node
		for pos >= len(p.text) || p.text[pos] != ')' {
			arg, next, err := p.parseExpression(pos)
			if err != nil {
				return nil, next, err
			}
			args = append(args, arg)
			pos = next
			if pos < len(p.text) && p.text[pos] == ',' {
				pos++
			} else if pos >= len(p.text) || p.text[pos] != ')' {
				return nil, pos, diagnostics.NewError(diagnostics.ErrP002, p.position(pos), "expected ',' or ')'")
			}
		}
		pos++

		if word, ok := expr.(*ast.Word); ok {
			expr = &ast.Apply{Position: word.Position, Operator: word, Args: args}
		} else {
			expr = &ast.Closure{Position: expr.Pos(), Operator: expr, Args: args}
		}
	}
	return expr, pos, nil
}

func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// isWordChar reports whether c continues a number, so that "12abc" is read
// as a word rather than a number followed by junk.
func isWordChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// isSpace is the character class spacePattern strips. U+0085 is not in it
// and so may appear inside a word.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func wordRun(s string) int {
	n := 0
	for n < len(s) {
		r, w := utf8.DecodeRuneInString(s[n:])
		if isSpace(r) || strings.ContainsRune(`(),#"`, r) {
			break
		}
		n += w
	}
	return n
}

// position maps an index into the stripped text back to the source.
func (p *Parser) position(pos int) diagnostics.Position {
	if pos > len(p.text) {
		pos = len(p.text)
	}
	off := p.offsets[pos]
	line := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > off })
	start := p.lineStarts[line-1]
	return diagnostics.Position{
		Offset: off,
		Line:   line,
		Column: utf8.RuneCountInString(p.source[start:off]) + 1,
	}
}

func (p *Parser) excerpt(pos int) string {
	rest := p.text[pos:]
	if rest == "" {
		return "end of input"
	}
	if utf8.RuneCountInString(rest) > excerptLen {
		runes := []rune(rest)
		return string(runes[:excerptLen]) + "..."
	}
	return rest
}

// Package diagnostics defines the error values produced by every stage of
// the translator. All failures carry a code, an optional source location and
// a message, and are returned as plain Go errors.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

// Parser errors
const (
	ErrP001 ErrorCode = "P001" // unexpected syntax
	ErrP002 ErrorCode = "P002" // expected ',' or ')'
	ErrP003 ErrorCode = "P003" // unexpected text after program
)

// Compiler errors
const (
	ErrF001 ErrorCode = "F001" // malformed special form
	ErrC001 ErrorCode = "C001" // undefined binding
	ErrC002 ErrorCode = "C002" // applying a non-function
	ErrC003 ErrorCode = "C003" // unresolved assignment target
)

// Runtime errors
const (
	ErrR001 ErrorCode = "R001" // generated code failed while executing
)

// Kind groups error codes into the failure classes callers switch on.
type Kind int

const (
	KindUnknown Kind = iota
	SyntaxFailure
	UndefinedBinding
	ApplyNonFunction
	UnresolvedAssignmentTarget
	RuntimeFailure
)

func (k Kind) String() string {
	switch k {
	case SyntaxFailure:
		return "SyntaxFailure"
	case UndefinedBinding:
		return "UndefinedBinding"
	case ApplyNonFunction:
		return "ApplyNonFunction"
	case UnresolvedAssignmentTarget:
		return "UnresolvedAssignmentTarget"
	case RuntimeFailure:
		return "RuntimeFailure"
	}
	return "Unknown"
}

// Kind returns the failure class of the code.
func (c ErrorCode) Kind() Kind {
	switch c {
	case ErrP001, ErrP002, ErrP003, ErrF001:
		return SyntaxFailure
	case ErrC001:
		return UndefinedBinding
	case ErrC002:
		return ApplyNonFunction
	case ErrC003:
		return UnresolvedAssignmentTarget
	case ErrR001:
		return RuntimeFailure
	}
	return KindUnknown
}

// Position is a location in the source text as written. Line and Column are
// 1-based; a zero Line means the location is unknown.
type Position struct {
	Offset int
	Line   int
	Column int
}

type DiagnosticError struct {
	Code    ErrorCode
	File    string
	Line    int
	Column  int
	Message string
}

func NewError(code ErrorCode, pos Position, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Line:    pos.Line,
		Column:  pos.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:%d:", e.Line, e.Column)
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "error[%s]: %s", e.Code, e.Message)
	return b.String()
}

func (e *DiagnosticError) Kind() Kind {
	return e.Code.Kind()
}

// KindOf reports the failure class of err, looking through wrapping.
func KindOf(err error) Kind {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Kind()
	}
	return KindUnknown
}

// CodeOf returns the code of the first DiagnosticError in err's chain.
func CodeOf(err error) ErrorCode {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

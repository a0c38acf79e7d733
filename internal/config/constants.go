package config

const SourceFileExt = ".egg"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".egg", ".eggs"}

// GeneratedFileExt is appended in place of the source extension by
// `eggc compile -o`.
const GeneratedFileExt = ".js"

// Special form names
const (
	IfForm     = "if"
	WhileForm  = "while"
	DoForm     = "do"
	DefineForm = "define"
	SetForm    = "set"
	FunForm    = "fun"
)

// Primitive names
const (
	AddFuncName     = "+"
	SubFuncName     = "-"
	MulFuncName     = "*"
	DivFuncName     = "/"
	EqFuncName      = "=="
	LtFuncName      = "<"
	GtFuncName      = ">"
	PrintFuncName   = "print"
	ArrayFuncName   = "array"
	LengthFuncName  = "length"
	ElementFuncName = "element"
)

// Root scope values
const (
	TrueName  = "true"
	FalseName = "false"
)

// Execution backends
const (
	BackendGoja = "goja"
	BackendNode = "node"
)

// Version is reported by `eggc version`.
const Version = "0.3.0"

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/funvibe/eggc/internal/config"
)

// resultMarker separates console output from the JSON-encoded result on the
// node process's stdout.
const resultMarker = "\x00eggc-result:"

// NodeBackend runs programs in a node child process.
type NodeBackend struct {
	binary string
}

func NewNode(binary string) *NodeBackend {
	if binary == "" {
		binary = config.DefaultNodeBinary
	}
	return &NodeBackend{binary: binary}
}

func (b *NodeBackend) Name() string {
	return config.BackendNode
}

func (b *NodeBackend) Execute(ctx context.Context, program string) (*Result, error) {
	script := "const __result = " + wrap(program) + ";\n" +
		"process.stdout.write(" + fmt.Sprintf("%q", resultMarker) + " + " +
		"(typeof __result === 'function' ? JSON.stringify(String(__result)) : (JSON.stringify(__result) ?? 'null')));\n"

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.binary, "-e", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Result{Output: stdout.String()}, &RuntimeError{Backend: b.Name(), Message: fmt.Sprintf("execution interrupted: %v", ctxErr)}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{Output: stdout.String()}, &RuntimeError{Backend: b.Name(), Message: thrownMessage(stderr.String())}
		}
		return nil, fmt.Errorf("starting %s: %w", b.binary, err)
	}

	output, encoded, found := strings.Cut(stdout.String(), resultMarker)
	if !found {
		return &Result{Output: output}, &RuntimeError{Backend: b.Name(), Message: "program produced no result"}
	}
	var value interface{}
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &Result{Value: value, Output: output}, nil
}

// thrownMessage picks the "Name: message" line out of node's uncaught
// exception report.
func thrownMessage(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "Error: ") || strings.HasPrefix(line, "Uncaught ") {
			return strings.TrimPrefix(line, "Uncaught ")
		}
	}
	return strings.TrimSpace(stderr)
}

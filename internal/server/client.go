package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls a Translator service.
type Client struct {
	conn *grpc.ClientConn
	sd   *desc.ServiceDescriptor
}

// CompileReply is the response to Compile.
type CompileReply struct {
	Code      string
	Functions []string
}

// RunReply is the response to Run. Value is the decoded result.
type RunReply struct {
	Value  interface{}
	Output string
	Code   string
}

// Dial connects to target without transport security. Extra options are
// appended, so a test can swap the dialer.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, sd: sd}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Compile translates source. An empty sessionID compiles in a fresh session.
func (c *Client) Compile(ctx context.Context, sessionID, source string) (*CompileReply, error) {
	resp, err := c.invoke(ctx, "Compile", map[string]interface{}{"source": source, "session_id": sessionID})
	if err != nil {
		return nil, err
	}
	return &CompileReply{
		Code:      stringField(resp, "code"),
		Functions: stringsField(resp, "functions"),
	}, nil
}

func (c *Client) Run(ctx context.Context, sessionID, source string) (*RunReply, error) {
	resp, err := c.invoke(ctx, "Run", map[string]interface{}{"source": source, "session_id": sessionID})
	if err != nil {
		return nil, err
	}
	reply := &RunReply{Output: stringField(resp, "output"), Code: stringField(resp, "code")}
	if raw := stringField(resp, "value_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &reply.Value); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
	}
	return reply, nil
}

// OpenSession starts a session and returns its id.
func (c *Client) OpenSession(ctx context.Context) (string, error) {
	resp, err := c.invoke(ctx, "OpenSession", nil)
	if err != nil {
		return "", err
	}
	return stringField(resp, "session_id"), nil
}

// CloseSession ends a session and returns the functions it had registered.
func (c *Client) CloseSession(ctx context.Context, sessionID string) ([]string, error) {
	resp, err := c.invoke(ctx, "CloseSession", map[string]interface{}{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	return stringsField(resp, "functions"), nil
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]interface{}) (*dynamic.Message, error) {
	md := c.sd.FindMethodByName(method)
	if md == nil {
		return nil, fmt.Errorf("method %s not found in %s", method, ServiceName)
	}
	req := dynamic.NewMessage(md.GetInputType())
	for name, v := range fields {
		if err := req.TrySetFieldByName(name, v); err != nil {
			return nil, fmt.Errorf("setting %s: %w", name, err)
		}
	}
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := c.conn.Invoke(ctx, methodPath(method), req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func stringsField(msg *dynamic.Message, name string) []string {
	v, err := msg.TryGetFieldByName(name)
	if err != nil {
		return nil
	}
	var out []string
	switch v := v.(type) {
	case []interface{}:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = v
	}
	return out
}

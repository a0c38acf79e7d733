// Package server exposes sessions over gRPC. The service is described by an
// embedded .proto file and served with dynamic messages, so there is no
// generated code.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/pkg/eggc"
)

// SessionFactory creates the session behind an OpenSession call or a
// session-less request.
type SessionFactory func() (*eggc.Session, error)

type handlerFunc func(ctx context.Context, in, out *dynamic.Message) error

type Server struct {
	sd         *desc.ServiceDescriptor
	newSession SessionFactory
	handlers   map[string]handlerFunc

	mu       sync.Mutex
	sessions map[string]*session
	grpc     *grpc.Server
}

// session serializes requests on one eggc.Session. A request that looked
// the session up before it was closed finds closed set once it gets mu.
type session struct {
	mu     sync.Mutex
	s      *eggc.Session
	closed bool
}

// close closes the underlying Session once and returns the functions it had
// registered.
func (sess *session) close() ([]string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, nil
	}
	sess.closed = true
	return sess.s.Functions(), sess.s.Close()
}

func New(factory SessionFactory) (*Server, error) {
	sd, err := Descriptor()
	if err != nil {
		return nil, err
	}
	srv := &Server{
		sd:         sd,
		newSession: factory,
		sessions:   make(map[string]*session),
	}
	srv.handlers = map[string]handlerFunc{
		"Compile":      srv.compile,
		"Run":          srv.run,
		"OpenSession":  srv.openSession,
		"CloseSession": srv.closeSession,
	}
	return srv, nil
}

// Register adds the Translator service to g.
func (s *Server) Register(g *grpc.Server) {
	sd := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.sd.GetFile().GetName(),
	}
	for _, method := range s.sd.GetMethods() {
		md := method
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*Server).handleUnary(ctx, md, dec)
			},
		})
	}
	g.RegisterService(sd, s)
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	if s.grpc == nil {
		s.grpc = grpc.NewServer()
		s.Register(s.grpc)
	}
	g := s.grpc
	s.mu.Unlock()

	log.Printf("serving %s on %s", ServiceName, lis.Addr())
	return g.Serve(lis)
}

// Stop stops serving and closes every open session.
func (s *Server) Stop() {
	s.mu.Lock()
	g := s.grpc
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	if g != nil {
		g.GracefulStop()
	}
	for id, sess := range sessions {
		if _, err := sess.close(); err != nil {
			log.Printf("closing session %s: %v", id, err)
		}
	}
}

func (s *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	in := dynamic.NewMessage(md.GetInputType())
	if err := dec(in); err != nil {
		return nil, err
	}
	handler, ok := s.handlers[md.GetName()]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", md.GetName())
	}

	start := time.Now()
	out := dynamic.NewMessage(md.GetOutputType())
	err := handler(ctx, in, out)
	log.Printf("%s %s %s", md.GetName(), status.Code(err), time.Since(start).Round(time.Microsecond))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withSession runs fn on the named session, or on a throwaway one when id
// is empty.
func (s *Server) withSession(id string, fn func(*eggc.Session) error) error {
	if id == "" {
		sess, err := s.newSession()
		if err != nil {
			return status.Errorf(codes.Internal, "creating session: %v", err)
		}
		defer sess.Close()
		return fn(sess)
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "unknown session %q", id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return status.Errorf(codes.NotFound, "session %q is closed", id)
	}
	return fn(sess.s)
}

func (s *Server) compile(ctx context.Context, in, out *dynamic.Message) error {
	source := stringField(in, "source")
	return s.withSession(stringField(in, "session_id"), func(sess *eggc.Session) error {
		code, err := sess.Compile(source)
		if err != nil {
			return translateError(err)
		}
		return setFields(out, map[string]interface{}{
			"code":      code,
			"functions": sess.Functions(),
		})
	})
}

func (s *Server) run(ctx context.Context, in, out *dynamic.Message) error {
	source := stringField(in, "source")
	return s.withSession(stringField(in, "session_id"), func(sess *eggc.Session) error {
		res, err := sess.Run(ctx, source)
		if err != nil {
			return translateError(err)
		}
		value, err := json.Marshal(res.Value)
		if err != nil {
			return status.Errorf(codes.Internal, "encoding result: %v", err)
		}
		return setFields(out, map[string]interface{}{
			"value_json": string(value),
			"output":     res.Output,
			"code":       res.Code,
		})
	})
}

func (s *Server) openSession(ctx context.Context, in, out *dynamic.Message) error {
	sess, err := s.newSession()
	if err != nil {
		return status.Errorf(codes.Internal, "creating session: %v", err)
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{s: sess}
	s.mu.Unlock()

	return setFields(out, map[string]interface{}{"session_id": id})
}

func (s *Server) closeSession(ctx context.Context, in, out *dynamic.Message) error {
	id := stringField(in, "session_id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return status.Errorf(codes.NotFound, "unknown session %q", id)
	}

	functions, err := sess.close()
	if err != nil {
		log.Printf("closing session %s: %v", id, err)
	}
	return setFields(out, map[string]interface{}{"functions": functions})
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// translateError maps a translation failure to a gRPC status.
func translateError(err error) error {
	switch diagnostics.KindOf(err) {
	case diagnostics.RuntimeFailure:
		return status.Error(codes.Aborted, err.Error())
	case diagnostics.KindUnknown:
		return status.Error(codes.Internal, err.Error())
	}
	return status.Error(codes.InvalidArgument, err.Error())
}

func stringField(msg *dynamic.Message, name string) string {
	v, err := msg.TryGetFieldByName(name)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func setFields(msg *dynamic.Message, fields map[string]interface{}) error {
	for name, v := range fields {
		if err := msg.TrySetFieldByName(name, v); err != nil {
			return status.Errorf(codes.Internal, "setting %s: %v", name, err)
		}
	}
	return nil
}

package server

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ServiceName is the fully qualified name of the Translator service.
const ServiceName = "eggc.v1.Translator"

const protoFile = "eggc/v1/translator.proto"

//go:embed translator.proto
var translatorProto string

var (
	serviceOnce sync.Once
	serviceDesc *desc.ServiceDescriptor
	serviceErr  error
)

// Descriptor returns the parsed Translator service descriptor.
func Descriptor() (*desc.ServiceDescriptor, error) {
	serviceOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: translatorProto}),
		}
		fds, err := parser.ParseFiles(protoFile)
		if err != nil {
			serviceErr = fmt.Errorf("failed to parse proto: %w", err)
			return
		}
		sd := fds[0].FindService(ServiceName)
		if sd == nil {
			serviceErr = fmt.Errorf("service %s not found in %s", ServiceName, protoFile)
			return
		}
		if err := checkFields(sd); err != nil {
			serviceErr = err
			return
		}
		serviceDesc = sd
	})
	return serviceDesc, serviceErr
}

// handlerFields lists, per message, the fields the handlers read or write.
// All of them are strings; the repeated ones are marked.
var handlerFields = map[string]map[string]bool{
	"CompileRequest":       {"source": false, "session_id": false},
	"CompileResponse":      {"code": false, "functions": true},
	"RunRequest":           {"source": false, "session_id": false},
	"RunResponse":          {"value_json": false, "output": false, "code": false},
	"OpenSessionResponse":  {"session_id": false},
	"CloseSessionRequest":  {"session_id": false},
	"CloseSessionResponse": {"functions": true},
}

// checkFields verifies that the messages of sd have the shape the handlers
// expect.
func checkFields(sd *desc.ServiceDescriptor) error {
	for _, md := range sd.GetMethods() {
		for _, msg := range []*desc.MessageDescriptor{md.GetInputType(), md.GetOutputType()} {
			for name, repeated := range handlerFields[msg.GetName()] {
				fd := msg.FindFieldByName(name)
				if fd == nil {
					return fmt.Errorf("%s: message %s has no field %s", protoFile, msg.GetName(), name)
				}
				if fd.GetType() != descriptorpb.FieldDescriptorProto_TYPE_STRING || fd.IsRepeated() != repeated {
					return fmt.Errorf("%s: field %s.%s has type %s", protoFile, msg.GetName(), name, fd.GetType())
				}
			}
		}
	}
	return nil
}

func methodPath(method string) string {
	return "/" + ServiceName + "/" + method
}

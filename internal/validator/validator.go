// Package validator exposes Eval as a gRPC service, txscript.Validator/
// Evaluate, for callers outside this process. Its schema is parsed from
// an in-memory .proto source at startup with protoreflect's protoparse —
// no protoc build step — and the service is registered against
// *grpc.Server with a hand-built grpc.ServiceDesc, exactly the shape
// builtins_grpc.go's builtinGrpcRegister builds for a scripted gRPC
// server: one manual grpc.MethodDesc per RPC, a handler that decodes a
// *dynamic.Message, does the real work, and encodes the reply the same
// way (SPEC_FULL.md §4.9).
package validator

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vaultchain/txscript/internal/diagnostics"
	"github.com/vaultchain/txscript/internal/domain"
	"github.com/vaultchain/txscript/internal/evaluator"
	"github.com/vaultchain/txscript/internal/registry"
	"github.com/vaultchain/txscript/internal/values"
)

const protoFile = "txscript.proto"

const protoSource = `
syntax = "proto3";
package txscript;

message EvaluateRequest {
  string script_id = 1;
  int64 height = 2;
  bytes id = 3;
  int64 type = 4;
  bytes sender_pk = 5;
  bytes body_bytes = 6;
  repeated bytes proofs = 7;
}

message EvaluateResponse {
  string value_type = 1;
  string value_repr = 2;
}

service Validator {
  rpc Evaluate(EvaluateRequest) returns (EvaluateResponse);
}
`

// Service is the Validator gRPC service implementation. Construct one
// with NewService and attach it to a *grpc.Server with Register.
type Service struct {
	registry *registry.Registry
	sd       *desc.ServiceDescriptor
	method   *desc.MethodDescriptor
}

// NewService parses the embedded proto schema and builds a Service that
// resolves script IDs against reg.
func NewService(reg *registry.Registry) (*Service, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: protoSource}),
	}
	fds, err := parser.ParseFiles(protoFile)
	if err != nil {
		return nil, fmt.Errorf("validator: parse proto schema: %w", err)
	}
	sd := fds[0].FindService("txscript.Validator")
	if sd == nil {
		return nil, fmt.Errorf("validator: service txscript.Validator not found in schema")
	}
	md := sd.FindMethodByName("Evaluate")
	if md == nil {
		return nil, fmt.Errorf("validator: method Evaluate not found in schema")
	}
	return &Service{registry: reg, sd: sd, method: md}, nil
}

// Register attaches the Validator service to server.
func (s *Service) Register(server *grpc.Server) {
	desc := &grpc.ServiceDesc{
		ServiceName: s.sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    s.sd.GetFile().GetName(),
		Methods: []grpc.MethodDesc{
			{
				MethodName: s.method.GetName(),
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					return srv.(*Service).handleEvaluate(ctx, dec)
				},
			},
		},
		Streams: []grpc.StreamDesc{},
	}
	server.RegisterService(desc, s)
}

func (s *Service) handleEvaluate(_ context.Context, dec func(interface{}) error) (interface{}, error) {
	req := dynamic.NewMessage(s.method.GetInputType())
	if err := dec(req); err != nil {
		return nil, status.Errorf(codes.Internal, "decode request: %v", err)
	}

	scriptIDHex, _ := req.TryGetFieldByName("script_id")
	id, err := registry.ParseScriptID(fmt.Sprint(scriptIDHex))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed script_id: %v", err)
	}
	expr, found := s.registry.Lookup(id)
	if !found {
		return nil, status.Errorf(codes.NotFound, "script %s not registered", id)
	}

	d := requestDomain(req)
	ctx := evaluator.NewContext(d)
	v, diag := evaluator.Evaluate(ctx, expr, nil)
	if diag != nil {
		return nil, status.Error(diagnosticCode(diag), diag.Error())
	}

	resp := dynamic.NewMessage(s.method.GetOutputType())
	resp.SetFieldByName("value_type", v.Type().String())
	resp.SetFieldByName("value_repr", values.String(v))
	return resp, nil
}

func requestDomain(req *dynamic.Message) *domain.Static {
	height, _ := req.TryGetFieldByName("height")
	id, _ := req.TryGetFieldByName("id")
	typ, _ := req.TryGetFieldByName("type")
	senderPK, _ := req.TryGetFieldByName("sender_pk")
	bodyBytes, _ := req.TryGetFieldByName("body_bytes")
	proofsField, _ := req.TryGetFieldByName("proofs")

	proofs := [][]byte{}
	if raw, ok := proofsField.([]interface{}); ok {
		proofs = make([][]byte, len(raw))
		for i, p := range raw {
			if b, ok := p.([]byte); ok {
				proofs[i] = b
			}
		}
	}

	return &domain.Static{
		HeightValue:    toInt64(height),
		IDValue:        toBytes(id),
		TypeValue:      toInt64(typ),
		SenderPKValue:  toBytes(senderPK),
		BodyBytesValue: toBytes(bodyBytes),
		Proofs:         proofs,
	}
}

func toInt64(v interface{}) int64 {
	n, _ := v.(int64)
	return n
}

func toBytes(v interface{}) []byte {
	b, _ := v.([]byte)
	return b
}

// diagnosticCode maps a Diagnostic's Kind to the gRPC status code the
// validator reports it as: a TypeError means the caller handed the
// service an ill-typed script, an ExecError means the script is
// well-typed but the transaction it was evaluated against fails to
// satisfy it.
func diagnosticCode(d *diagnostics.Diagnostic) codes.Code {
	if d.Kind == diagnostics.TypeError {
		return codes.InvalidArgument
	}
	return codes.FailedPrecondition
}

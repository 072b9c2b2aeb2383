package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/tpaconsole/internal/evaluation"
	"github.com/solatis/tpaconsole/internal/normalize"
	"github.com/solatis/tpaconsole/internal/rules"
)

/*
 * tpaconsole.rules.v1.RuleService
 *
 * Every message is a google.protobuf.Struct, so the service needs no
 * generated code: the descriptor below is what protoc-gen-go-grpc would emit
 * for
 *
 *   service RuleService {
 *     rpc CompileRule(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc NormalizeDosageRule(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc NormalizeDecision(google.protobuf.Struct) returns (google.protobuf.Struct);
 *   }
 *
 * Struct fields are a map, so factor key order does not survive the wire.
 * Clients that care about condition order send factors as a list of
 * {key, value} objects.
 */

// RuleServiceName is the fully qualified gRPC service name.
const RuleServiceName = "tpaconsole.rules.v1.RuleService"

// RuleServiceServer is the server API for RuleService.
type RuleServiceServer interface {
	CompileRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NormalizeDosageRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NormalizeDecision(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(RuleServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RuleServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + RuleServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RuleServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RuleServiceDesc is the grpc.ServiceDesc for RuleService.
var RuleServiceDesc = grpc.ServiceDesc{
	ServiceName: RuleServiceName,
	HandlerType: (*RuleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CompileRule", RuleServiceServer.CompileRule),
		unaryHandler("NormalizeDosageRule", RuleServiceServer.NormalizeDosageRule),
		unaryHandler("NormalizeDecision", RuleServiceServer.NormalizeDecision),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tpaconsole/rules/v1/rules.proto",
}

// RegisterRuleServiceServer registers srv on s.
func RegisterRuleServiceServer(s grpc.ServiceRegistrar, srv RuleServiceServer) {
	s.RegisterService(&RuleServiceDesc, srv)
}

// RuleServiceClient is the client API for RuleService.
type RuleServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRuleServiceClient wraps a client connection.
func NewRuleServiceClient(cc grpc.ClientConnInterface) *RuleServiceClient {
	return &RuleServiceClient{cc: cc}
}

func (c *RuleServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+RuleServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RuleServiceClient) CompileRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CompileRule", in, opts...)
}

func (c *RuleServiceClient) NormalizeDosageRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "NormalizeDosageRule", in, opts...)
}

func (c *RuleServiceClient) NormalizeDecision(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "NormalizeDecision", in, opts...)
}

// RuleService exposes the pure rule core over gRPC. No backend I/O.
type RuleService struct {
	compiler *rules.Compiler
}

// NewRuleService creates the gRPC rule service.
func NewRuleService(compiler *rules.Compiler) (*RuleService, error) {
	if compiler == nil {
		return nil, fmt.Errorf("compiler cannot be nil")
	}
	return &RuleService{compiler: compiler}, nil
}

// CompileRule compiles a draft and returns payload, summary and issues.
func (s *RuleService) CompileRule(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	data, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode draft: %v", err)
	}
	draft, err := rules.DecodeDraft(data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	return toStruct(s.compiler.Run(draft))
}

// NormalizeDosageRule maps a backend dosage rule record to its app-side shape.
func (s *RuleService) NormalizeDosageRule(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(normalize.NormalizeDosageRule(req.AsMap()))
}

// NormalizeDecision maps a backend decision response to its fixed shape.
func (s *RuleService) NormalizeDecision(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(evaluation.NormalizeDecision(req.AsMap()))
}

// toStruct converts a JSON-tagged value through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

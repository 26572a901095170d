// Package gatev1 defines the envguard.v1.Gate gRPC service. Requests and
// responses are google.protobuf.Struct values shaped like the hook payload,
// so no generated message types are needed.
package gatev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName                  = "envguard.v1.Gate"
	Gate_Evaluate_FullMethodName = "/envguard.v1.Gate/Evaluate"
)

// GateServer is the server API for the Gate service.
type GateServer interface {
	// Evaluate decides one tool call. The request carries tool_name,
	// tool_input and session_id; the response carries decision, reason,
	// detail and message.
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GateClient is the client API for the Gate service.
type GateClient interface {
	Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type gateClient struct {
	cc grpc.ClientConnInterface
}

// NewGateClient wraps a connection.
func NewGateClient(cc grpc.ClientConnInterface) GateClient {
	return &gateClient{cc}
}

func (c *gateClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Gate_Evaluate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterGateServer registers srv with s.
func RegisterGateServer(s grpc.ServiceRegistrar, srv GateServer) {
	s.RegisterService(&Gate_ServiceDesc, srv)
}

func _Gate_Evaluate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GateServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Gate_Evaluate_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GateServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Gate_ServiceDesc is the grpc.ServiceDesc for the Gate service.
var Gate_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GateServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    _Gate_Evaluate_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "envguard/v1/gate.proto",
}

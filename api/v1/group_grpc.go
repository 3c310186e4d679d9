// Package lamlockv1 holds the gRPC bindings of the lamlock.v1.Group service
// described in group.proto. The service only carries well-known wrapper
// types, so the bindings are maintained by hand.
package lamlockv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	Group_Join_FullMethodName      = "/lamlock.v1.Group/Join"
	Group_Bind_FullMethodName      = "/lamlock.v1.Group/Bind"
	Group_Subgroup_FullMethodName  = "/lamlock.v1.Group/Subgroup"
	Group_Send_FullMethodName      = "/lamlock.v1.Group/Send"
	Group_Heartbeat_FullMethodName = "/lamlock.v1.Group/Heartbeat"
	Group_Leave_FullMethodName     = "/lamlock.v1.Group/Leave"
	Group_Subscribe_FullMethodName = "/lamlock.v1.Group/Subscribe"
)

// GroupClient is the client API for the Group service.
type GroupClient interface {
	Join(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	Bind(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Subgroup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Heartbeat(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Leave(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Subscribe(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (Group_SubscribeClient, error)
}

type groupClient struct {
	cc grpc.ClientConnInterface
}

func NewGroupClient(cc grpc.ClientConnInterface) GroupClient {
	return &groupClient{cc}
}

func (c *groupClient) Join(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, Group_Join_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Bind(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Group_Bind_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Subgroup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, Group_Subgroup_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Group_Send_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Heartbeat(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Group_Heartbeat_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Leave(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Group_Leave_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *groupClient) Subscribe(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (Group_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &Group_ServiceDesc.Streams[0], Group_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.UInt64Value, wrapperspb.BytesValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type Group_SubscribeClient = grpc.ServerStreamingClient[wrapperspb.BytesValue]

// GroupServer is the server API for the Group service.
// Implementations must embed UnimplementedGroupServer.
type GroupServer interface {
	Join(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	Bind(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error)
	Subgroup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Send(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Heartbeat(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error)
	Leave(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error)
	Subscribe(*wrapperspb.UInt64Value, Group_SubscribeServer) error
	mustEmbedUnimplementedGroupServer()
}

type Group_SubscribeServer = grpc.ServerStreamingServer[wrapperspb.BytesValue]

type UnimplementedGroupServer struct{}

func (UnimplementedGroupServer) Join(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Join not implemented")
}
func (UnimplementedGroupServer) Bind(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Bind not implemented")
}
func (UnimplementedGroupServer) Subgroup(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Subgroup not implemented")
}
func (UnimplementedGroupServer) Send(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Send not implemented")
}
func (UnimplementedGroupServer) Heartbeat(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Heartbeat not implemented")
}
func (UnimplementedGroupServer) Leave(context.Context, *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Leave not implemented")
}
func (UnimplementedGroupServer) Subscribe(*wrapperspb.UInt64Value, Group_SubscribeServer) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedGroupServer) mustEmbedUnimplementedGroupServer() {}

func RegisterGroupServer(s grpc.ServiceRegistrar, srv GroupServer) {
	s.RegisterService(&Group_ServiceDesc, srv)
}

func _Group_Join_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Join(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Join_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Join(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Bind_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Bind(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Bind_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Bind(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Subgroup_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Subgroup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Subgroup_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Subgroup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Send_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Send_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Send(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Heartbeat_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Heartbeat_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Heartbeat(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Leave_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GroupServer).Leave(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Group_Leave_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GroupServer).Leave(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _Group_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(wrapperspb.UInt64Value)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(GroupServer).Subscribe(m, &grpc.GenericServerStream[wrapperspb.UInt64Value, wrapperspb.BytesValue]{ServerStream: stream})
}

// Group_ServiceDesc is the grpc.ServiceDesc for the Group service.
var Group_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lamlock.v1.Group",
	HandlerType: (*GroupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Join", Handler: _Group_Join_Handler},
		{MethodName: "Bind", Handler: _Group_Bind_Handler},
		{MethodName: "Subgroup", Handler: _Group_Subgroup_Handler},
		{MethodName: "Send", Handler: _Group_Send_Handler},
		{MethodName: "Heartbeat", Handler: _Group_Heartbeat_Handler},
		{MethodName: "Leave", Handler: _Group_Leave_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _Group_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "api/v1/group.proto",
}

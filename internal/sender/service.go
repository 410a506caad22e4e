package sender

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const LogService_SendLogs_FullMethodName = "/logd.LogService/SendLogs"

type LogServiceClient interface {
	SendLogs(ctx context.Context, in *LogBatch, opts ...grpc.CallOption) (*Response, error)
}

type logServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLogServiceClient(cc grpc.ClientConnInterface) LogServiceClient {
	return &logServiceClient{cc}
}

func (c *logServiceClient) SendLogs(ctx context.Context, in *LogBatch, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, LogService_SendLogs_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type LogServiceServer interface {
	SendLogs(context.Context, *LogBatch) (*Response, error)
}

// UnimplementedLogServiceServer can be embedded for forward compatibility.
type UnimplementedLogServiceServer struct{}

func (UnimplementedLogServiceServer) SendLogs(context.Context, *LogBatch) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendLogs not implemented")
}

func RegisterLogServiceServer(s grpc.ServiceRegistrar, srv LogServiceServer) {
	s.RegisterService(&LogService_ServiceDesc, srv)
}

func _LogService_SendLogs_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LogBatch)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogServiceServer).SendLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LogService_SendLogs_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LogServiceServer).SendLogs(ctx, req.(*LogBatch))
	}
	return interceptor(ctx, in, info, handler)
}

var LogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "logd.LogService",
	HandlerType: (*LogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendLogs",
			Handler:    _LogService_SendLogs_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logd/sender.proto",
}

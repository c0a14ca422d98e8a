package classifier

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The classifier service has no .proto of its own: every message is a
// google.protobuf.Struct, so the descriptor below is written by hand in the
// shape protoc-gen-go-grpc would emit.

// #region names
const (
	ServiceName = "posealarm.classifier.v1.Classifier"

	methodAddExample   = "/" + ServiceName + "/AddExample"
	methodClassify     = "/" + ServiceName + "/Classify"
	methodCountByLabel = "/" + ServiceName + "/CountByLabel"
	methodClearLabel   = "/" + ServiceName + "/ClearLabel"
)

// #endregion names

// #region client-api
// ServiceClient is the raw client API for the classifier service.
type ServiceClient interface {
	AddExample(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CountByLabel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ClearLabel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type serviceClient struct {
	cc grpc.ClientConnInterface
}

// NewServiceClient wraps a connection in the raw service API.
func NewServiceClient(cc grpc.ClientConnInterface) ServiceClient {
	return &serviceClient{cc: cc}
}

func (c *serviceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *serviceClient) AddExample(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAddExample, in, opts...)
}

func (c *serviceClient) Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodClassify, in, opts...)
}

func (c *serviceClient) CountByLabel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCountByLabel, in, opts...)
}

func (c *serviceClient) ClearLabel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodClearLabel, in, opts...)
}

// #endregion client-api

// #region server-api
// ServiceServer is the raw server API for the classifier service.
type ServiceServer interface {
	AddExample(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Classify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountByLabel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearLabel(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterServiceServer attaches srv to a gRPC server.
func RegisterServiceServer(s grpc.ServiceRegistrar, srv ServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func unaryHandler(fullMethod string, call func(ServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddExample", Handler: unaryHandler(methodAddExample, ServiceServer.AddExample)},
		{MethodName: "Classify", Handler: unaryHandler(methodClassify, ServiceServer.Classify)},
		{MethodName: "CountByLabel", Handler: unaryHandler(methodCountByLabel, ServiceServer.CountByLabel)},
		{MethodName: "ClearLabel", Handler: unaryHandler(methodClearLabel, ServiceServer.ClearLabel)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "posealarm/classifier/v1/classifier.proto",
}

// #endregion server-api

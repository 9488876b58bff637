package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BillAdminServiceName is the fully qualified gRPC service name
const BillAdminServiceName = "billlink.admin.v1.BillAdmin"

const (
	methodCreateBill = "/" + BillAdminServiceName + "/CreateBill"
	methodGetBill    = "/" + BillAdminServiceName + "/GetBill"
	methodListBills  = "/" + BillAdminServiceName + "/ListBills"
	methodDeleteBill = "/" + BillAdminServiceName + "/DeleteBill"
)

// BillAdminServer is the server API for the BillAdmin service.
// Messages are well-known protobuf types so no generated code is needed.
type BillAdminServer interface {
	CreateBill(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBill(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListBills(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	DeleteBill(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// BillAdminServiceDesc describes the BillAdmin service for grpc.Server
var BillAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: BillAdminServiceName,
	HandlerType: (*BillAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateBill", Handler: createBillHandler},
		{MethodName: "GetBill", Handler: getBillHandler},
		{MethodName: "ListBills", Handler: listBillsHandler},
		{MethodName: "DeleteBill", Handler: deleteBillHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "billlink/admin/v1/admin.proto",
}

// RegisterBillAdminServer registers srv on s
func RegisterBillAdminServer(s grpc.ServiceRegistrar, srv BillAdminServer) {
	s.RegisterService(&BillAdminServiceDesc, srv)
}

func unary[Req any, Resp any](
	fullMethod string,
	call func(BillAdminServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BillAdminServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BillAdminServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	createBillHandler = unary(methodCreateBill, BillAdminServer.CreateBill)
	getBillHandler    = unary(methodGetBill, BillAdminServer.GetBill)
	listBillsHandler  = unary(methodListBills, BillAdminServer.ListBills)
	deleteBillHandler = unary(methodDeleteBill, BillAdminServer.DeleteBill)
)

// BillAdminClient is the client API for the BillAdmin service
type BillAdminClient struct {
	cc grpc.ClientConnInterface
}

// NewBillAdminClient creates a client over cc
func NewBillAdminClient(cc grpc.ClientConnInterface) *BillAdminClient {
	return &BillAdminClient{cc: cc}
}

// CreateBill calls BillAdmin.CreateBill
func (c *BillAdminClient) CreateBill(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodCreateBill, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBill calls BillAdmin.GetBill
func (c *BillAdminClient) GetBill(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetBill, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBills calls BillAdmin.ListBills
func (c *BillAdminClient) ListBills(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListBills, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBill calls BillAdmin.DeleteBill
func (c *BillAdminClient) DeleteBill(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, methodDeleteBill, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

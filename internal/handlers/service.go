package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "monban.v1.ACLService"

// Method names of ACLService. Every method takes and returns a
// google.protobuf.Struct.
const (
	MethodResolve              = "Resolve"
	MethodSetRoleLevel         = "SetRoleLevel"
	MethodRemoveRoleLevel      = "RemoveRoleLevel"
	MethodListRoleLevels       = "ListRoleLevels"
	MethodSetCommandLevel      = "SetCommandLevel"
	MethodRemoveCommandLevel   = "RemoveCommandLevel"
	MethodListCommandLevels    = "ListCommandLevels"
	MethodAddOverride          = "AddOverride"
	MethodRemoveOverride       = "RemoveOverride"
	MethodListOverrides        = "ListOverrides"
	MethodAddGroup             = "AddGroup"
	MethodRemoveGroup          = "RemoveGroup"
	MethodListGroups           = "ListGroups"
	MethodSetRule              = "SetRule"
	MethodGetRule              = "GetRule"
	MethodRemoveRule           = "RemoveRule"
	MethodListRules            = "ListRules"
	MethodSetRuleConstraint    = "SetRuleConstraint"
	MethodRemoveRuleConstraint = "RemoveRuleConstraint"
	MethodDisableGlobally      = "DisableGlobally"
	MethodEnableGlobally       = "EnableGlobally"
)

// ACLServiceServer is the server API for ACLService
type ACLServiceServer interface {
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRoleLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRoleLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRoleLevels(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetCommandLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveCommandLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCommandLevels(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddOverride(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveOverride(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOverrides(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddGroup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveGroup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGroups(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRuleConstraint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRuleConstraint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DisableGlobally(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EnableGlobally(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ACLServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ACLServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ACLServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ACLServiceDesc is the grpc.ServiceDesc for ACLService
var ACLServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ACLServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodResolve, ACLServiceServer.Resolve),
		unaryMethod(MethodSetRoleLevel, ACLServiceServer.SetRoleLevel),
		unaryMethod(MethodRemoveRoleLevel, ACLServiceServer.RemoveRoleLevel),
		unaryMethod(MethodListRoleLevels, ACLServiceServer.ListRoleLevels),
		unaryMethod(MethodSetCommandLevel, ACLServiceServer.SetCommandLevel),
		unaryMethod(MethodRemoveCommandLevel, ACLServiceServer.RemoveCommandLevel),
		unaryMethod(MethodListCommandLevels, ACLServiceServer.ListCommandLevels),
		unaryMethod(MethodAddOverride, ACLServiceServer.AddOverride),
		unaryMethod(MethodRemoveOverride, ACLServiceServer.RemoveOverride),
		unaryMethod(MethodListOverrides, ACLServiceServer.ListOverrides),
		unaryMethod(MethodAddGroup, ACLServiceServer.AddGroup),
		unaryMethod(MethodRemoveGroup, ACLServiceServer.RemoveGroup),
		unaryMethod(MethodListGroups, ACLServiceServer.ListGroups),
		unaryMethod(MethodSetRule, ACLServiceServer.SetRule),
		unaryMethod(MethodGetRule, ACLServiceServer.GetRule),
		unaryMethod(MethodRemoveRule, ACLServiceServer.RemoveRule),
		unaryMethod(MethodListRules, ACLServiceServer.ListRules),
		unaryMethod(MethodSetRuleConstraint, ACLServiceServer.SetRuleConstraint),
		unaryMethod(MethodRemoveRuleConstraint, ACLServiceServer.RemoveRuleConstraint),
		unaryMethod(MethodDisableGlobally, ACLServiceServer.DisableGlobally),
		unaryMethod(MethodEnableGlobally, ACLServiceServer.EnableGlobally),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "monban/v1/acl.proto",
}

// RegisterACLServiceServer registers srv with s
func RegisterACLServiceServer(s grpc.ServiceRegistrar, srv ACLServiceServer) {
	s.RegisterService(&ACLServiceDesc, srv)
}

// ACLServiceClient calls ACLService methods by name
type ACLServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewACLServiceClient creates a client over cc
func NewACLServiceClient(cc grpc.ClientConnInterface) *ACLServiceClient {
	return &ACLServiceClient{cc: cc}
}

// Call invokes method with req
func (c *ACLServiceClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

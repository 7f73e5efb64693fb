package plannersvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "coverage.v1.PlannerService"

// Method names of the planner service.
const (
	MethodPlanCoverage  = "PlanCoverage"
	MethodGetMission    = "GetMission"
	MethodListMissions  = "ListMissions"
	MethodDeleteMission = "DeleteMission"
	MethodExportMission = "ExportMission"
)

// Empty is the request and response of calls that carry no payload.
type Empty struct{}

// PlannerServer is the server API of coverage.v1.PlannerService. Messages
// travel as google.protobuf.Struct values holding the JSON form of the
// request and response types in this package.
type PlannerServer interface {
	PlanCoverage(context.Context, *PlanRequest) (*MissionView, error)
	GetMission(context.Context, *NameRequest) (*MissionView, error)
	ListMissions(context.Context, *Empty) (*MissionList, error)
	DeleteMission(context.Context, *NameRequest) (*Empty, error)
	ExportMission(context.Context, *ExportRequest) (*ExportView, error)
}

// GRPCServer implements PlannerServer on top of a Service.
type GRPCServer struct {
	svc *Service
}

// NewGRPCServer wraps svc for registration on a grpc.Server.
func NewGRPCServer(svc *Service) *GRPCServer {
	return &GRPCServer{svc: svc}
}

var _ PlannerServer = (*GRPCServer)(nil)

func (s *GRPCServer) PlanCoverage(ctx context.Context, req *PlanRequest) (*MissionView, error) {
	return s.svc.PlanCoverage(ctx, req)
}

func (s *GRPCServer) GetMission(ctx context.Context, req *NameRequest) (*MissionView, error) {
	return s.svc.GetMission(ctx, req.Name)
}

func (s *GRPCServer) ListMissions(ctx context.Context, _ *Empty) (*MissionList, error) {
	return s.svc.ListMissions(ctx)
}

func (s *GRPCServer) DeleteMission(ctx context.Context, req *NameRequest) (*Empty, error) {
	if err := s.svc.DeleteMission(ctx, req.Name); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *GRPCServer) ExportMission(ctx context.Context, req *ExportRequest) (*ExportView, error) {
	enc, err := s.svc.ExportMission(ctx, req.Name, req.Format)
	if err != nil {
		return nil, err
	}
	return &ExportView{Filename: enc.Filename, ContentType: enc.ContentType, Body: string(enc.Body)}, nil
}

// ServiceDesc describes the planner service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodPlanCoverage, Handler: unaryHandler(MethodPlanCoverage, PlannerServer.PlanCoverage)},
		{MethodName: MethodGetMission, Handler: unaryHandler(MethodGetMission, PlannerServer.GetMission)},
		{MethodName: MethodListMissions, Handler: unaryHandler(MethodListMissions, PlannerServer.ListMissions)},
		{MethodName: MethodDeleteMission, Handler: unaryHandler(MethodDeleteMission, PlannerServer.DeleteMission)},
		{MethodName: MethodExportMission, Handler: unaryHandler(MethodExportMission, PlannerServer.ExportMission)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coverage/v1/planner.proto",
}

// RegisterPlannerServer registers srv on reg.
func RegisterPlannerServer(reg grpc.ServiceRegistrar, srv PlannerServer) {
	reg.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req, Resp any](method string, call func(PlannerServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			msg, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Errorf(codes.Internal, "unexpected request type %T", req)
			}
			var r Req
			if err := FromStruct(msg, &r); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			resp, err := call(srv.(PlannerServer), ctx, &r)
			if err != nil {
				return nil, ToStatusError(err)
			}
			out, err := ToStruct(resp)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, in, info, handler)
	}
}

// ToStruct converts v into a protobuf Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// FromStruct decodes s into v, rejecting fields v does not declare.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = new(structpb.Struct)
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// Client calls a remote planner service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// PlanCoverage plans and, unless req.DryRun, stores a mission.
func (c *Client) PlanCoverage(ctx context.Context, req *PlanRequest, opts ...grpc.CallOption) (*MissionView, error) {
	return invoke[MissionView](ctx, c.cc, MethodPlanCoverage, req, opts...)
}

// GetMission fetches a stored mission by name.
func (c *Client) GetMission(ctx context.Context, name string, opts ...grpc.CallOption) (*MissionView, error) {
	return invoke[MissionView](ctx, c.cc, MethodGetMission, &NameRequest{Name: name}, opts...)
}

// ListMissions lists stored missions.
func (c *Client) ListMissions(ctx context.Context, opts ...grpc.CallOption) (*MissionList, error) {
	return invoke[MissionList](ctx, c.cc, MethodListMissions, &Empty{}, opts...)
}

// DeleteMission removes a stored mission.
func (c *Client) DeleteMission(ctx context.Context, name string, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, MethodDeleteMission, &NameRequest{Name: name}, opts...)
	return err
}

// ExportMission renders a stored mission as geojson or json.
func (c *Client) ExportMission(ctx context.Context, name, format string, opts ...grpc.CallOption) (*ExportView, error) {
	return invoke[ExportView](ctx, c.cc, MethodExportMission, &ExportRequest{Name: name, Format: format}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	in, err := ToStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := FromStruct(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

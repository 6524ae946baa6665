package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/burial-clock/core"
	"github.com/signalsfoundry/burial-clock/internal/export"
	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/sim/state"
)

// ScenarioServiceName is the fully-qualified gRPC service name.
const ScenarioServiceName = "burialclock.v1.ScenarioService"

const (
	methodGenerate      = "/" + ScenarioServiceName + "/Generate"
	methodGetCurrent    = "/" + ScenarioServiceName + "/GetCurrent"
	methodApplySettings = "/" + ScenarioServiceName + "/ApplySettings"
	methodGetFrame      = "/" + ScenarioServiceName + "/GetFrame"
)

// ScenarioServiceServer is the server API for the scenario service. Messages
// are well-known Struct values whose fields mirror the HTTP JSON API.
type ScenarioServiceServer interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCurrent(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ApplySettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFrame(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ScenarioService implements ScenarioServiceServer on top of ScenarioState.
type ScenarioService struct {
	state *state.ScenarioState
	log   logging.Logger
}

// NewScenarioService constructs a ScenarioService bound to the provided state.
func NewScenarioService(st *state.ScenarioState, log logging.Logger) *ScenarioService {
	if log == nil {
		log = logging.Noop()
	}
	return &ScenarioService{state: st, log: log}
}

// Generate builds (or fetches from cache) the scenario for the requested
// settings without changing the current one. Missing fields use defaults.
func (s *ScenarioService) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	settings, err := settingsForGenerate(req)
	if err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "generate rejected", logging.Err(err))
		return nil, ToStatusError(err)
	}

	ctx, span := startScenarioSpan(ctx, "ScenarioService.Generate", settings)
	defer span.End()

	sc := s.state.Generate(ctx, settings)
	return s.respond(newScenarioResponse(sc, boolField(req, fieldSummaryOnly)))
}

// GetCurrent returns the scenario built from the last accepted settings.
func (s *ScenarioService) GetCurrent(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.respond(newScenarioResponse(s.state.Current(), false))
}

// ApplySettings validates the request against the current settings and
// makes the result current. Invalid fields keep their previous values and
// are listed under "rejected".
func (s *ScenarioService) ApplySettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	candidate, _ := candidateFromStruct(req)

	ctx, span := startScenarioSpan(ctx, "ScenarioService.ApplySettings", s.state.Settings())
	defer span.End()

	sc := s.state.Apply(ctx, candidate)
	resp := newScenarioResponse(sc, boolField(req, fieldSummaryOnly))
	resp.Rejected = core.RejectedFields(candidate)
	return s.respond(resp)
}

// GetFrame returns one frame of the current scenario with its apparent ages.
func (s *ScenarioService) GetFrame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	idx, err := indexField(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	resp, err := frameResponse(s.state, idx)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return s.respond(resp)
}

func (s *ScenarioService) respond(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

func frameResponse(st *state.ScenarioState, idx int) (FrameResponse, error) {
	sc := st.Current()
	f, ok := sc.Frame(idx)
	if !ok {
		return FrameResponse{}, ErrNotFound
	}
	return FrameResponse{
		ScenarioID: sc.ID(),
		Index:      idx,
		Frame:      export.NewRecord(f),
	}, nil
}

// RegisterScenarioServiceServer registers srv on s.
func RegisterScenarioServiceServer(s grpc.ServiceRegistrar, srv ScenarioServiceServer) {
	s.RegisterService(&ScenarioServiceDesc, srv)
}

// ScenarioServiceDesc describes the scenario service for grpc.Server.
var ScenarioServiceDesc = grpc.ServiceDesc{
	ServiceName: ScenarioServiceName,
	HandlerType: (*ScenarioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: structHandler(methodGenerate, ScenarioServiceServer.Generate)},
		{MethodName: "GetCurrent", Handler: getCurrentHandler},
		{MethodName: "ApplySettings", Handler: structHandler(methodApplySettings, ScenarioServiceServer.ApplySettings)},
		{MethodName: "GetFrame", Handler: structHandler(methodGetFrame, ScenarioServiceServer.GetFrame)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "burialclock/v1/scenario.proto",
}

type structMethod func(ScenarioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScenarioServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ScenarioServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func getCurrentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScenarioServiceServer).GetCurrent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetCurrent}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScenarioServiceServer).GetCurrent(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ScenarioServiceClient is the client API for the scenario service.
type ScenarioServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScenarioServiceClient(cc grpc.ClientConnInterface) *ScenarioServiceClient {
	return &ScenarioServiceClient{cc: cc}
}

func (c *ScenarioServiceClient) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, methodGenerate, in, opts...)
}

func (c *ScenarioServiceClient) GetCurrent(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetCurrent, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScenarioServiceClient) ApplySettings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, methodApplySettings, in, opts...)
}

func (c *ScenarioServiceClient) GetFrame(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, methodGetFrame, in, opts...)
}

func (c *ScenarioServiceClient) invokeStruct(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

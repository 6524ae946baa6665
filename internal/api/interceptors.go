package api

import (
	"context"
	"sort"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/burial-clock/internal/logging"
	"github.com/signalsfoundry/burial-clock/internal/observability"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor gives every call a request_id, taken from
// inbound metadata when the client sent one and echoed back as a response
// header. Handlers find a logger on the context tagged with the request id,
// the RPC name and the settings fields the request supplied.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := observability.SplitMethod(fullMethod)
		fields := []logging.Field{logging.String("service", service), logging.String("method", method)}
		if requested := requestedFields(req); requested != "" {
			fields = append(fields, logging.String("requested", requested))
		}

		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(fields...))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		// Fails outside a real transport stream; the id is still logged.
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, logging.RequestIDFromContext(ctx)))

		resp, err := handler(ctx, req)
		if err != nil {
			reqLog.Warn(ctx, "scenario request failed",
				logging.String("code", status.Code(err).String()),
				logging.Err(err),
			)
		}
		return resp, err
	}
}

// requestedFields lists the known settings keys present on a struct request.
func requestedFields(req interface{}) string {
	st, ok := req.(*structpb.Struct)
	if !ok || st == nil {
		return ""
	}
	var keys []string
	for _, k := range []string{fieldExposure, fieldBurial, fieldReExposure, fieldIndex} {
		if _, ok := st.GetFields()[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

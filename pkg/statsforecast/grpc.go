package statsforecast

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The estimator service exchanges google.protobuf.Struct messages so that
// constructor arguments and forecast dictionaries keep their open shape.
const (
	estimatorService = "statsforecast.v1.Estimator"
	fitMethod        = "/" + estimatorService + "/Fit"
	predictMethod    = "/" + estimatorService + "/Predict"
)

// EstimatorServer is the server side of the estimator service.
//
// Fit receives {"model", "params", "y"} and returns {"model_id", "selected"}.
// Predict receives {"model_id", "h", "level"} and returns the forecast
// dictionary with one list per key.
type EstimatorServer interface {
	Fit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterEstimatorServer registers srv on s.
func RegisterEstimatorServer(s grpc.ServiceRegistrar, srv EstimatorServer) {
	s.RegisterService(&estimatorServiceDesc, srv)
}

var estimatorServiceDesc = grpc.ServiceDesc{
	ServiceName: estimatorService,
	HandlerType: (*EstimatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fit", Handler: fitHandler},
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "statsforecast/v1/estimator.proto",
}

func fitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EstimatorServer).Fit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EstimatorServer).Fit(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EstimatorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: predictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EstimatorServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCEstimator runs AutoCES on a statsforecast gRPC service. Status errors
// from the service are returned as received.
type GRPCEstimator struct {
	conn   grpc.ClientConnInterface
	config AutoCESConfig

	modelID  string
	selected string
}

// NewGRPCEstimator creates an estimator on an existing connection.
func NewGRPCEstimator(conn grpc.ClientConnInterface, cfg AutoCESConfig) *GRPCEstimator {
	return &GRPCEstimator{conn: conn, config: cfg}
}

// Fit sends y to the service, which selects and fits an AutoCES model.
func (e *GRPCEstimator) Fit(ctx context.Context, y []float64) error {
	req, err := structpb.NewStruct(map[string]any{
		"model":  "AutoCES",
		"params": e.config.Params(),
		"y":      floatsToList(y),
	})
	if err != nil {
		return fmt.Errorf("encode fit request: %w", err)
	}

	out := new(structpb.Struct)
	if err := e.conn.Invoke(ctx, fitMethod, req, out); err != nil {
		return err
	}

	modelID := out.GetFields()["model_id"].GetStringValue()
	if modelID == "" {
		return fmt.Errorf("statsforecast fit: response has no model_id")
	}
	e.modelID = modelID
	e.selected = out.GetFields()["selected"].GetStringValue()
	return nil
}

// Predict requests an h-step forecast with intervals at levels.
func (e *GRPCEstimator) Predict(ctx context.Context, h int, levels ...float64) (Forecast, error) {
	if e.modelID == "" {
		return nil, ErrNoModel
	}

	req, err := structpb.NewStruct(map[string]any{
		"model_id": e.modelID,
		"h":        h,
		"level":    floatsToList(levels),
	})
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	out := new(structpb.Struct)
	if err := e.conn.Invoke(ctx, predictMethod, req, out); err != nil {
		return nil, err
	}
	return StructToForecast(out), nil
}

// Selected returns the CES variant chosen by the last successful Fit.
func (e *GRPCEstimator) Selected() string {
	return e.selected
}

// StructToForecast converts every list-valued field of s into a forecast entry.
func StructToForecast(s *structpb.Struct) Forecast {
	f := make(Forecast, len(s.GetFields()))
	for key, v := range s.GetFields() {
		list := v.GetListValue()
		if list == nil {
			continue
		}
		values := make([]float64, len(list.GetValues()))
		for i, x := range list.GetValues() {
			values[i] = x.GetNumberValue()
		}
		f[key] = values
	}
	return f
}

// ForecastToStruct is the inverse of StructToForecast.
func ForecastToStruct(f Forecast) (*structpb.Struct, error) {
	fields := make(map[string]any, len(f))
	for key, values := range f {
		fields[key] = floatsToList(values)
	}
	return structpb.NewStruct(fields)
}

func floatsToList(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package statsforecast

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeEstimatorServer struct {
	y      []float64
	params map[string]any
}

func (s *fakeEstimatorServer) Fit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m := req.AsMap()
	ys, _ := m["y"].([]any)
	if len(ys) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty series")
	}
	s.y = s.y[:0]
	for _, v := range ys {
		s.y = append(s.y, v.(float64))
	}
	s.params, _ = m["params"].(map[string]any)
	return structpb.NewStruct(map[string]any{"model_id": "ces-7", "selected": "CES(N)"})
}

func (s *fakeEstimatorServer) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m := req.AsMap()
	if m["model_id"] != "ces-7" {
		return nil, status.Error(codes.NotFound, "unknown model")
	}
	h := int(m["h"].(float64))
	last := s.y[len(s.y)-1]
	f := Forecast{"mean": make([]float64, h)}
	for _, lvl := range m["level"].([]any) {
		lo, hi := make([]float64, h), make([]float64, h)
		for i := range h {
			lo[i], hi[i] = last-2, last+2
		}
		f[LevelKey("lo", lvl.(float64))] = lo
		f[LevelKey("hi", lvl.(float64))] = hi
	}
	for i := range h {
		f["mean"][i] = last
	}
	return ForecastToStruct(f)
}

func dialBufconn(t *testing.T, srv EstimatorServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterEstimatorServer(server, srv)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPCEstimator_FitPredict(t *testing.T) {
	fake := &fakeEstimatorServer{}
	est := NewGRPCEstimator(dialBufconn(t, fake), AutoCESConfig{SeasonLength: 12, Model: "N"})

	if err := est.Fit(context.Background(), []float64{5, 6, 7}); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if est.Selected() != "CES(N)" {
		t.Errorf("Selected() = %q, want %q", est.Selected(), "CES(N)")
	}
	if fake.params["season_length"] != float64(12) || fake.params["model"] != "N" {
		t.Errorf("params = %v", fake.params)
	}

	f, err := est.Predict(context.Background(), 4, OneSigmaLevel)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	mean, _ := f.Mean()
	lo, hi, err := f.Interval(OneSigmaLevel)
	if err != nil {
		t.Fatalf("Interval() error = %v", err)
	}
	if len(mean) != 4 || mean[3] != 7 || lo[0] != 5 || hi[0] != 9 {
		t.Errorf("forecast = %v", f)
	}
}

func TestGRPCEstimator_StatusErrorsPassThrough(t *testing.T) {
	est := NewGRPCEstimator(dialBufconn(t, &fakeEstimatorServer{}), AutoCESConfig{})

	err := est.Fit(context.Background(), nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Fit() code = %v, want InvalidArgument (err=%v)", status.Code(err), err)
	}
}

func TestGRPCEstimator_PredictBeforeFit(t *testing.T) {
	est := NewGRPCEstimator(dialBufconn(t, &fakeEstimatorServer{}), AutoCESConfig{})

	if _, err := est.Predict(context.Background(), 1, OneSigmaLevel); !errors.Is(err, ErrNoModel) {
		t.Errorf("Predict() error = %v, want ErrNoModel", err)
	}
}

func TestStructToForecast_SkipsNonLists(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"mean":     []any{1.0, 2.0},
		"model_id": "x",
	})
	if err != nil {
		t.Fatalf("NewStruct() error = %v", err)
	}

	f := StructToForecast(s)
	if len(f) != 1 || f["mean"][1] != 2 {
		t.Errorf("StructToForecast() = %v", f)
	}
}

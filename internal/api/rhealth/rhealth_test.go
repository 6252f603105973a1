package rhealth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/internal/api/middleware/mwcodec"
	"github.com/the-dev-tools/orderedmodel/pkg/db/sqlitemem"
)

func TestHealthServiceRPC_HealthCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanup, err := sqlitemem.NewSQLiteMem(ctx)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(cleanup)

	svc := New(db, []string{"items", "answers"})
	resp, err := svc.HealthCheck(ctx, connect.NewRequest(&HealthCheckRequest{}))
	if err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if resp.Msg.Status != StatusServing {
		t.Fatalf("HealthCheck returned unexpected status: %q", resp.Msg.Status)
	}
	if !slices.Equal(resp.Msg.Models, []string{"items", "answers"}) {
		t.Fatalf("HealthCheck returned unexpected models: %v", resp.Msg.Models)
	}
}

func TestHealthServiceRPC_ClosedDB(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanup, err := sqlitemem.NewSQLiteMem(ctx)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	cleanup()

	_, err = New(db, nil).HealthCheck(ctx, connect.NewRequest(&HealthCheckRequest{}))
	if connect.CodeOf(err) != connect.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestHealthServiceOverHTTP(t *testing.T) {
	t.Parallel()

	service, err := CreateService(New(nil, []string{"items"}), []connect.HandlerOption{mwcodec.WithJSONCodec()})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle(service.Path, service.Handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := connect.NewClient[HealthCheckRequest, HealthCheckResponse](
		server.Client(),
		server.URL+HealthCheckProcedure,
		mwcodec.WithJSONCodec(),
	)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&HealthCheckRequest{}))
	if err != nil {
		t.Fatalf("CallUnary: %v", err)
	}
	if resp.Msg.Status != StatusServing {
		t.Fatalf("unexpected status %q", resp.Msg.Status)
	}
}

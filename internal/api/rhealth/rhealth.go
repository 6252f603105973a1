//nolint:revive // exported
package rhealth

import (
	"context"
	"database/sql"
	"net/http"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/internal/api"
)

const (
	ServiceName               = "orderedmodel.v1.HealthService"
	HealthCheckProcedure      = "/" + ServiceName + "/HealthCheck"
	StatusServing             = "SERVING"
	StatusDatabaseUnreachable = "DATABASE_UNREACHABLE"
)

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Status string   `json:"status"`
	Models []string `json:"models"`
}

type HealthServiceRPC struct {
	db     *sql.DB
	models []string
}

func New(db *sql.DB, models []string) *HealthServiceRPC {
	return &HealthServiceRPC{db: db, models: models}
}

func CreateService(srv *HealthServiceRPC, options []connect.HandlerOption) (*api.Service, error) {
	mux := http.NewServeMux()
	mux.Handle(HealthCheckProcedure, connect.NewUnaryHandler(HealthCheckProcedure, srv.HealthCheck, options...))
	return &api.Service{Path: "/" + ServiceName + "/", Handler: mux}, nil
}

func (c *HealthServiceRPC) HealthCheck(ctx context.Context, _ *connect.Request[HealthCheckRequest]) (*connect.Response[HealthCheckResponse], error) {
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
	}
	return connect.NewResponse(&HealthCheckResponse{Status: StatusServing, Models: c.models}), nil
}

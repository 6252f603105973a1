//nolint:revive // exported
package rorder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/internal/admin"
	"github.com/the-dev-tools/orderedmodel/internal/api"
	"github.com/the-dev-tools/orderedmodel/pkg/errmap"
	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

const ServiceName = "orderedmodel.v1.OrderService"

const (
	OrderListProcedure         = "/" + ServiceName + "/OrderList"
	OrderCreateProcedure       = "/" + ServiceName + "/OrderCreate"
	OrderDeleteProcedure       = "/" + ServiceName + "/OrderDelete"
	OrderMoveProcedure         = "/" + ServiceName + "/OrderMove"
	OrderMoveToProcedure       = "/" + ServiceName + "/OrderMoveTo"
	OrderMoveRelativeProcedure = "/" + ServiceName + "/OrderMoveRelative"
	OrderSwapProcedure         = "/" + ServiceName + "/OrderSwap"
	OrderControlsProcedure     = "/" + ServiceName + "/OrderControls"
)

type OrderServiceRPC struct {
	glue   *admin.Glue
	logger *slog.Logger
}

func New(glue *admin.Glue, logger *slog.Logger) *OrderServiceRPC {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderServiceRPC{glue: glue, logger: logger}
}

func CreateService(srv *OrderServiceRPC, options []connect.HandlerOption) (*api.Service, error) {
	mux := http.NewServeMux()
	mux.Handle(OrderListProcedure, connect.NewUnaryHandler(OrderListProcedure, srv.OrderList, options...))
	mux.Handle(OrderCreateProcedure, connect.NewUnaryHandler(OrderCreateProcedure, srv.OrderCreate, options...))
	mux.Handle(OrderDeleteProcedure, connect.NewUnaryHandler(OrderDeleteProcedure, srv.OrderDelete, options...))
	mux.Handle(OrderMoveProcedure, connect.NewUnaryHandler(OrderMoveProcedure, srv.OrderMove, options...))
	mux.Handle(OrderMoveToProcedure, connect.NewUnaryHandler(OrderMoveToProcedure, srv.OrderMoveTo, options...))
	mux.Handle(OrderMoveRelativeProcedure, connect.NewUnaryHandler(OrderMoveRelativeProcedure, srv.OrderMoveRelative, options...))
	mux.Handle(OrderSwapProcedure, connect.NewUnaryHandler(OrderSwapProcedure, srv.OrderSwap, options...))
	mux.Handle(OrderControlsProcedure, connect.NewUnaryHandler(OrderControlsProcedure, srv.OrderControls, options...))
	return &api.Service{Path: "/" + ServiceName + "/", Handler: mux}, nil
}

func (c *OrderServiceRPC) OrderList(ctx context.Context, req *connect.Request[OrderListRequest]) (*connect.Response[OrderListResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	var recs []mranked.Record
	if req.Msg.Partition != "" {
		partition, err := parseID("partition", req.Msg.Partition)
		if err != nil {
			return nil, err
		}
		recs, err = svc.List(ctx, &partition)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
	} else {
		recs, err = svc.ListAll(ctx)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
	}
	items := make([]Record, len(recs))
	for i, rec := range recs {
		items[i] = toRecord(rec)
	}
	return connect.NewResponse(&OrderListResponse{Items: items}), nil
}

func (c *OrderServiceRPC) OrderCreate(ctx context.Context, req *connect.Request[OrderCreateRequest]) (*connect.Response[OrderCreateResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	var partition *idwrap.IDWrap
	if req.Msg.Partition != "" {
		p, err := parseID("partition", req.Msg.Partition)
		if err != nil {
			return nil, err
		}
		partition = &p
	}
	rec, err := svc.Create(ctx, partition, req.Msg.Label)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return connect.NewResponse(&OrderCreateResponse{Item: toRecord(rec)}), nil
}

func (c *OrderServiceRPC) OrderDelete(ctx context.Context, req *connect.Request[OrderDeleteRequest]) (*connect.Response[OrderDeleteResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	if err := svc.Delete(ctx, id); err != nil {
		return nil, c.fail(ctx, err)
	}
	return connect.NewResponse(&OrderDeleteResponse{}), nil
}

func (c *OrderServiceRPC) OrderMove(ctx context.Context, req *connect.Request[OrderMoveRequest]) (*connect.Response[OrderMoveResponse], error) {
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	direction, err := movable.ParseDirection(req.Msg.Direction)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	redirect, err := c.glue.HandleMove(ctx, req.Msg.Model, id, direction, req.Msg.ListQuery)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return c.moved(ctx, req.Msg.Model, id, redirect)
}

func (c *OrderServiceRPC) OrderMoveTo(ctx context.Context, req *connect.Request[OrderMoveToRequest]) (*connect.Response[OrderMoveResponse], error) {
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	redirect, err := c.glue.HandleMoveTo(ctx, req.Msg.Model, id, req.Msg.Position, req.Msg.ListQuery)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return c.moved(ctx, req.Msg.Model, id, redirect)
}

func (c *OrderServiceRPC) OrderMoveRelative(ctx context.Context, req *connect.Request[OrderMoveRelativeRequest]) (*connect.Response[OrderMoveResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	target, err := parseID("target_id", req.Msg.TargetID)
	if err != nil {
		return nil, err
	}
	var position movable.MovePosition
	switch req.Msg.Position {
	case "above":
		position = movable.MovePositionAbove
	case "below":
		position = movable.MovePositionBelow
	default:
		return nil, errmap.ToConnect(fmt.Errorf("%w: position must be above or below, got %q", movable.ErrInvalidArgument, req.Msg.Position))
	}
	if _, err := svc.Manager().MoveRelative(ctx, id, target, position); err != nil {
		return nil, c.fail(ctx, err)
	}
	return c.moved(ctx, req.Msg.Model, id, admin.ListURL(req.Msg.Model, req.Msg.ListQuery))
}

func (c *OrderServiceRPC) OrderSwap(ctx context.Context, req *connect.Request[OrderSwapRequest]) (*connect.Response[OrderMoveResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	others := make([]idwrap.IDWrap, 0, len(req.Msg.OtherIDs))
	for _, raw := range req.Msg.OtherIDs {
		other, err := parseID("other_ids", raw)
		if err != nil {
			return nil, err
		}
		others = append(others, other)
	}
	if _, err := svc.Manager().Swap(ctx, id, others); err != nil {
		return nil, c.fail(ctx, err)
	}
	return c.moved(ctx, req.Msg.Model, id, admin.ListURL(req.Msg.Model, req.Msg.ListQuery))
}

func (c *OrderServiceRPC) OrderControls(ctx context.Context, req *connect.Request[OrderControlsRequest]) (*connect.Response[OrderControlsResponse], error) {
	svc, err := c.lookup(req.Msg.Model)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}
	rec, err := svc.Get(ctx, id)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	siblings, err := svc.List(ctx, rec.Partition)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	controls := c.glue.RenderControls(svc.Model(), rec, len(siblings), req.Msg.ListQuery)
	if req.Msg.Inline {
		controls = c.glue.RenderInlineControls(svc.Model(), rec, len(siblings), req.Msg.ListQuery)
	}
	return connect.NewResponse(&OrderControlsResponse{Controls: controls}), nil
}

// moved reads the record back so the caller sees its final rank.
func (c *OrderServiceRPC) moved(ctx context.Context, model string, id idwrap.IDWrap, redirect string) (*connect.Response[OrderMoveResponse], error) {
	svc, err := c.lookup(model)
	if err != nil {
		return nil, err
	}
	rec, err := svc.Get(ctx, id)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	return connect.NewResponse(&OrderMoveResponse{Item: toRecord(rec), Redirect: redirect}), nil
}

func (c *OrderServiceRPC) lookup(model string) (*sranked.RankedService, error) {
	svc, err := c.glue.Registry().Lookup(model)
	if err != nil {
		return nil, errmap.ToConnect(err)
	}
	return svc, nil
}

func (c *OrderServiceRPC) fail(ctx context.Context, err error) error {
	if errmap.ConnectCode(err) == connect.CodeInternal {
		c.logger.ErrorContext(ctx, "order request failed", "error", err)
	}
	return errmap.ToConnect(err)
}

func parseID(field, raw string) (idwrap.IDWrap, error) {
	id, err := idwrap.NewText(raw)
	if err != nil {
		return idwrap.IDWrap{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: %w", field, err))
	}
	return id, nil
}

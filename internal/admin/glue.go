// Package admin is the HTML admin surface: a ranked list per model with
// move controls, and the POST routes those controls target.
package admin

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

const (
	// Prefix is where the admin pages are mounted.
	Prefix = "/admin/"
	// QueryStringParam carries the listing query string through a move.
	QueryStringParam = "qs"
)

// Controls are the targets of the up and down buttons of one row.
type Controls struct {
	UpURL    string `json:"up_url"`
	DownURL  string `json:"down_url"`
	MoveUp   bool   `json:"move_up"`
	MoveDown bool   `json:"move_down"`
}

// Glue adapts admin requests to the reorder engine of each model.
type Glue struct {
	registry *sranked.Registry
	logger   *slog.Logger
}

func NewGlue(registry *sranked.Registry, logger *slog.Logger) *Glue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Glue{registry: registry, logger: logger}
}

func (g *Glue) Registry() *sranked.Registry {
	return g.registry
}

// HandleMove moves the record one step and returns the listing URL to
// redirect to.
func (g *Glue) HandleMove(ctx context.Context, model string, id idwrap.IDWrap, direction movable.Direction, listQuery string) (string, error) {
	svc, err := g.registry.Lookup(model)
	if err != nil {
		return "", err
	}
	res, err := svc.Manager().Move(ctx, id, direction)
	if err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "admin move",
		"model", model,
		"record_id", id.String(),
		"direction", string(direction),
		"from", res.From,
		"to", res.To,
	)
	return ListURL(model, listQuery), nil
}

// HandleMoveInline is HandleMove for a row shown under its parent. The
// record must belong to parent or the call fails with ErrItemNotFound.
func (g *Glue) HandleMoveInline(ctx context.Context, model string, parent, id idwrap.IDWrap, direction movable.Direction, listQuery string) (string, error) {
	svc, err := g.registry.Lookup(model)
	if err != nil {
		return "", err
	}
	res, err := svc.Manager().MoveWithin(ctx, &parent, id, direction)
	if err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "admin inline move",
		"model", model,
		"parent_id", parent.String(),
		"record_id", id.String(),
		"direction", string(direction),
		"from", res.From,
		"to", res.To,
	)
	return ListURL(model, listQuery), nil
}

// HandleMoveTo moves the record to an absolute zero-based position.
func (g *Glue) HandleMoveTo(ctx context.Context, model string, id idwrap.IDWrap, position int, listQuery string) (string, error) {
	svc, err := g.registry.Lookup(model)
	if err != nil {
		return "", err
	}
	res, err := svc.Manager().MoveTo(ctx, id, position)
	if err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "admin move to",
		"model", model,
		"record_id", id.String(),
		"from", res.From,
		"to", res.To,
	)
	return ListURL(model, listQuery), nil
}

// RenderControls builds the up and down targets for rec. size is the number
// of rows in rec's partition and only decides which buttons are active.
func (g *Glue) RenderControls(model mranked.Model, rec mranked.Record, size int, listQuery string) Controls {
	base := Prefix + url.PathEscape(model.Name) + "/" + rec.ID.String()
	return Controls{
		UpURL:    withQueryString(base+"/move-up", listQuery),
		DownURL:  withQueryString(base+"/move-down", listQuery),
		MoveUp:   rec.Order > 0,
		MoveDown: rec.Order < size-1,
	}
}

// RenderInlineControls targets the inline routes that carry the parent id.
func (g *Glue) RenderInlineControls(model mranked.Model, rec mranked.Record, size int, listQuery string) Controls {
	if rec.Partition == nil {
		return g.RenderControls(model, rec, size, listQuery)
	}
	base := Prefix + url.PathEscape(model.Name) + "/" + rec.Partition.String() + "/" + rec.ID.String()
	return Controls{
		UpURL:    withQueryString(base+"/move-up", listQuery),
		DownURL:  withQueryString(base+"/move-down", listQuery),
		MoveUp:   rec.Order > 0,
		MoveDown: rec.Order < size-1,
	}
}

// MoveToURL is the target of a move-to form for rec.
func MoveToURL(model string, id idwrap.IDWrap, position int, listQuery string) string {
	return withQueryString(Prefix+url.PathEscape(model)+"/"+id.String()+"/move-to/"+strconv.Itoa(position), listQuery)
}

// ListURL is the listing page of model with listQuery restored.
func ListURL(model, listQuery string) string {
	target := Prefix + url.PathEscape(model) + "/"
	if q := CleanQuery(listQuery); q != "" {
		target += "?" + q
	}
	return target
}

// CleanQuery re-encodes a raw query string, dropping anything unparsable.
func CleanQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values.Encode()
}

func withQueryString(target, listQuery string) string {
	q := CleanQuery(listQuery)
	if q == "" {
		return target
	}
	return target + "?" + url.Values{QueryStringParam: {q}}.Encode()
}

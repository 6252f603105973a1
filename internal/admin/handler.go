package admin

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/the-dev-tools/orderedmodel/internal/api"
	"github.com/the-dev-tools/orderedmodel/pkg/compress"
	"github.com/the-dev-tools/orderedmodel/pkg/errmap"
	"github.com/the-dev-tools/orderedmodel/pkg/fuzzyfinder"
	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
)

const (
	searchParam = "q"
	pageParam   = "p"
	parentParam = "parent"
)

// compressMinBytes keeps tiny pages uncompressed.
const compressMinBytes = 1024

type Handler struct {
	glue   *Glue
	logger *slog.Logger
	mux    *http.ServeMux
}

// New builds the admin handler. auth wraps every route; pass nil to skip it.
func New(glue *Glue, logger *slog.Logger, auth func(http.Handler) http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{glue: glue, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /admin/{$}", h.index)
	h.mux.HandleFunc("GET /admin/{model}/{$}", h.list)
	h.mux.HandleFunc("POST /admin/{model}/{id}/{action}", h.move)
	h.mux.HandleFunc("POST /admin/{model}/{id}/move-to/{position}", h.moveTo)
	h.mux.HandleFunc("POST /admin/{model}/{parent}/{id}/{action}", h.moveInline)

	var handler http.Handler = h.mux
	if auth != nil {
		handler = auth(handler)
	}
	return RequestID(logger, handler)
}

// CreateService mounts the admin handler under Prefix.
func CreateService(handler http.Handler) *api.Service {
	return &api.Service{Path: Prefix, Handler: handler}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	names := h.glue.Registry().Names()
	entries := make([]indexEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, indexEntry{Name: name, URL: ListURL(name, "")})
	}
	h.render(w, r, indexTemplate, entries)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	svc, err := h.glue.Registry().Lookup(r.PathValue("model"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	model := svc.Model()
	query := r.URL.Query()

	var records []mranked.Record
	inline := false
	if raw := query.Get(parentParam); raw != "" && model.Partitioned() {
		parent, err := idwrap.NewText(raw)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: parent %q", movable.ErrInvalidArgument, raw))
			return
		}
		records, err = svc.List(ctx, &parent)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		inline = true
	} else {
		records, err = svc.ListAll(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	sizes := make(map[string]int)
	for _, rec := range records {
		sizes[partitionKey(rec.Partition)]++
	}

	search := strings.TrimSpace(query.Get(searchParam))
	if search != "" {
		labels := make([]string, len(records))
		for i, rec := range records {
			labels[i] = rec.Label
		}
		matched := make([]mranked.Record, 0, len(records))
		for _, i := range fuzzyfinder.MatchIndexes(labels, search) {
			matched = append(matched, records[i])
		}
		records = matched
	}

	page, _ := strconv.Atoi(query.Get(pageParam))
	perPage := max(model.ListPerPage, 1)
	// clamp before multiplying so a huge ?p= cannot overflow the offset
	page = min(max(page, 0), len(records)/perPage)
	start := page * perPage
	end := min(start+perPage, len(records))

	listQuery := r.URL.RawQuery
	data := listPage{
		Model:       model.Name,
		Partitioned: model.Partitioned(),
		Query:       search,
		Total:       len(records),
		Rows:        make([]listRow, 0, end-start),
	}
	for _, rec := range records[start:end] {
		size := sizes[partitionKey(rec.Partition)]
		controls := h.glue.RenderControls(model, rec, size, listQuery)
		if inline {
			controls = h.glue.RenderInlineControls(model, rec, size, listQuery)
		}
		data.Rows = append(data.Rows, listRow{
			ID:        rec.ID.String(),
			Parent:    partitionKey(rec.Partition),
			Order:     rec.Order,
			Label:     rec.Label,
			Controls:  controls,
			TopURL:    MoveToURL(model.Name, rec.ID, 0, listQuery),
			BottomURL: MoveToURL(model.Name, rec.ID, size-1, listQuery),
		})
	}
	if page > 0 {
		data.PrevURL = pageURL(r.URL, page-1)
	}
	if end < len(records) {
		data.NextURL = pageURL(r.URL, page+1)
	}
	h.render(w, r, listTemplate, data)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	direction, err := parseAction(r.PathValue("action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	target, err := h.glue.HandleMove(r.Context(), r.PathValue("model"), id, direction, r.URL.Query().Get(QueryStringParam))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) moveInline(w http.ResponseWriter, r *http.Request) {
	direction, err := parseAction(r.PathValue("action"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	parent, err := parseID(r.PathValue("parent"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	target, err := h.glue.HandleMoveInline(r.Context(), r.PathValue("model"), parent, id, direction, r.URL.Query().Get(QueryStringParam))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) moveTo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw := r.PathValue("position")
	position, err := strconv.Atoi(raw)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: position %q is not a number", movable.ErrInvalidArgument, raw))
		return
	}
	target, err := h.glue.HandleMoveTo(r.Context(), r.PathValue("model"), id, position, r.URL.Query().Get(QueryStringParam))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// render executes tmpl and compresses the page when the client accepts it.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.fail(w, r, err)
		return
	}
	body := buf.Bytes()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Add("Vary", "Accept-Encoding")
	if len(body) >= compressMinBytes {
		if ct, name := compress.Negotiate(r.Header.Get("Accept-Encoding")); ct != compress.CompressTypeNone {
			compressed, err := compress.Compress(body, ct)
			if err == nil {
				w.Header().Set("Content-Encoding", name)
				body = compressed
			} else {
				h.logger.WarnContext(r.Context(), "admin response compression failed", "encoding", name, "error", err)
			}
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errmap.HTTPStatus(err)
	attrs := []any{"request_id", RequestIDFrom(r.Context()), "path", r.URL.Path, "status", status, "error", err}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "admin request failed", attrs...)
	} else {
		h.logger.DebugContext(r.Context(), "admin request rejected", attrs...)
	}
	http.Error(w, errmap.Friendly(err), status)
}

func parseAction(action string) (movable.Direction, error) {
	dir, ok := strings.CutPrefix(action, "move-")
	if !ok {
		return "", fmt.Errorf("%w: %q", movable.ErrItemNotFound, action)
	}
	return movable.ParseDirection(dir)
}

// parseID maps a malformed id to not found, like an unknown one.
func parseID(raw string) (idwrap.IDWrap, error) {
	id, err := idwrap.NewText(raw)
	if err != nil {
		return idwrap.IDWrap{}, fmt.Errorf("%w: %q", movable.ErrItemNotFound, raw)
	}
	return id, nil
}

func partitionKey(p *idwrap.IDWrap) string {
	if p == nil {
		return ""
	}
	return p.String()
}

func pageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}

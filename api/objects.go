// Package api exposes model collections over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-collection-cache/loader"
	"github.com/goliatone/go-collection-cache/model"
	"github.com/goliatone/go-collection-cache/query"
	"github.com/gorilla/mux"
)

// DefaultPerPage is the page size used when a request does not set one.
const DefaultPerPage = 20

// reserved query parameters; every other parameter naming a declared
// property becomes an equality filter.
var reserved = map[string]struct{}{
	"page":     {},
	"per_page": {},
	"q":        {},
	"search":   {},
	"order":    {},
}

// Option configures an ObjectsHandler.
type Option func(*ObjectsHandler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *ObjectsHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDynamicTypeField sets the column resolving the concrete type of rows.
func WithDynamicTypeField(field string) Option {
	return func(h *ObjectsHandler) {
		h.typeField = field
	}
}

// WithSearchProperties sets the properties searched by "q" when the request
// names none in "search".
func WithSearchProperties(properties ...string) Option {
	return func(h *ObjectsHandler) {
		h.searchProperties = properties
	}
}

// WithDefaultPerPage overrides DefaultPerPage.
func WithDefaultPerPage(n int) Option {
	return func(h *ObjectsHandler) {
		h.perPage = n
	}
}

// ObjectsHandler serves GET /api/objects/{type}.
type ObjectsHandler struct {
	factory          *model.Factory
	typeField        string
	searchProperties []string
	perPage          int
	logger           *slog.Logger
}

func NewObjectsHandler(factory *model.Factory, opts ...Option) *ObjectsHandler {
	h := &ObjectsHandler{
		factory: factory,
		perPage: DefaultPerPage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Page is the response body of a collection request.
type Page struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total"`
}

func (h *ObjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objType, err := url.PathUnescape(mux.Vars(r)["type"])
	if err != nil || objType == "" {
		writeError(w, http.StatusBadRequest, "invalid object type")
		return
	}
	meta, ok := h.factory.Metadata(objType)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown object type %q", objType))
		return
	}

	l := loader.New(h.factory, loader.WithLogger(h.logger), loader.WithDynamicTypeField(h.typeField))
	if err := l.SetModelType(objType); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := h.apply(l, meta, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	items, err := l.Load(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collection could not be loaded")
		return
	}
	total, err := l.LoadCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collection could not be counted")
		return
	}

	out := Page{Items: make([]map[string]any, 0, items.Len()), Total: total}
	for _, m := range items.All() {
		item := m.Data()
		item["obj_type"] = m.ObjType()
		out.Items = append(out.Items, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ObjectsHandler) apply(l *loader.Loader, meta *model.Metadata, params url.Values) error {
	page, err := intParam(params, "page", 1)
	if err != nil {
		return err
	}
	perPage, err := intParam(params, "per_page", h.perPage)
	if err != nil {
		return err
	}
	p, err := query.NewPagination(page, perPage)
	if err != nil {
		return err
	}
	if err := l.SetPagination(p); err != nil {
		return err
	}

	if kw := strings.TrimSpace(params.Get("q")); kw != "" {
		props := h.searchProperties
		if s := params.Get("search"); s != "" {
			props = splitList(s)
		}
		if len(props) == 0 {
			return errors.New("search requires at least one property")
		}
		var columns []string
		for _, ident := range props {
			prop, ok := meta.Property(ident)
			if !ok {
				return fmt.Errorf("unknown search property %q", ident)
			}
			for _, f := range prop.Fields {
				columns = append(columns, f.Name)
			}
		}
		if err := l.AddKeyword(kw, columns...); err != nil {
			return err
		}
	}

	for _, spec := range splitList(params.Get("order")) {
		ident, dirName, _ := strings.Cut(spec, ":")
		column, ok := singleColumn(meta, ident)
		if !ok {
			return fmt.Errorf("unknown order property %q", ident)
		}
		dir, err := query.ParseDirection(dirName)
		if err != nil {
			return err
		}
		if err := l.AddOrder(column, dir); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		if _, ok := reserved[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		column, ok := singleColumn(meta, name)
		if !ok {
			return fmt.Errorf("unknown filter property %q", name)
		}
		if err := l.AddFilter(column, params.Get(name)); err != nil {
			return err
		}
	}
	return nil
}

// singleColumn returns the column of a single-field property.
func singleColumn(meta *model.Metadata, ident string) (string, bool) {
	prop, ok := meta.Property(ident)
	if !ok || prop.Multi() {
		return "", false
	}
	return prop.Fields[0].Name, true
}

func intParam(params url.Values, name string, fallback int) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

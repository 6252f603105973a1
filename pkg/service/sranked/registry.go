package sranked

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
)

var (
	ErrModelNotFound  = errors.New("ranked model not found")
	ErrDuplicateModel = errors.New("ranked model registered twice")
)

// Registry resolves the model name used in URLs to its service.
type Registry struct {
	services map[string]*RankedService
	names    []string
}

func NewRegistry(db *sql.DB, models []mranked.Model, logger *slog.Logger) (*Registry, error) {
	r := &Registry{services: make(map[string]*RankedService, len(models))}
	for _, m := range models {
		if _, ok := r.services[m.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name)
		}
		svc, err := New(db, m, logger)
		if err != nil {
			return nil, err
		}
		r.services[m.Name] = svc
		r.names = append(r.names, m.Name)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (*RankedService, error) {
	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	return svc, nil
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

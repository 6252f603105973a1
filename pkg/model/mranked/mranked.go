package mranked

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
)

const (
	DefaultIDColumn    = "id"
	DefaultOrderColumn = "order"
	DefaultListPerPage = 100
)

var (
	ErrInvalidModel      = errors.New("invalid ranked model")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Record is one ranked row as the admin and RPC layers see it.
type Record struct {
	ID        idwrap.IDWrap
	Order     int
	Partition *idwrap.IDWrap
	Label     string
}

// Model binds a table to the ranking engine. PartitionColumn is empty for a
// single global ranking.
type Model struct {
	Name            string `yaml:"name"`
	Table           string `yaml:"table"`
	IDColumn        string `yaml:"id_column"`
	OrderColumn     string `yaml:"order_column"`
	PartitionColumn string `yaml:"partition_column"`
	LabelColumn     string `yaml:"label_column"`
	ListPerPage     int    `yaml:"list_per_page"`
}

// WithDefaults fills the optional columns.
func (m Model) WithDefaults() Model {
	if m.IDColumn == "" {
		m.IDColumn = DefaultIDColumn
	}
	if m.OrderColumn == "" {
		m.OrderColumn = DefaultOrderColumn
	}
	if m.ListPerPage <= 0 {
		m.ListPerPage = DefaultListPerPage
	}
	return m
}

func (m Model) Partitioned() bool {
	return m.PartitionColumn != ""
}

// Validate checks the model name and every identifier that ends up in SQL.
func (m Model) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidModel)
	}
	if strings.ContainsAny(m.Name, "/?#") {
		return fmt.Errorf("%w: name %q is not a url segment", ErrInvalidModel, m.Name)
	}
	if m.Table == "" {
		return fmt.Errorf("%w: %s: table is required", ErrInvalidModel, m.Name)
	}
	idents := []string{m.Table, m.IDColumn, m.OrderColumn}
	if m.PartitionColumn != "" {
		idents = append(idents, m.PartitionColumn)
	}
	if m.LabelColumn != "" {
		idents = append(idents, m.LabelColumn)
	}
	for _, ident := range idents {
		if !identRe.MatchString(ident) {
			return fmt.Errorf("%w: %s: %q", ErrInvalidIdentifier, m.Name, ident)
		}
	}
	return nil
}

// Quote renders an identifier for SQL. Callers must have validated it.
func Quote(ident string) string {
	return `"` + ident + `"`
}

package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/the-dev-tools/orderedmodel/internal/config"
	"github.com/the-dev-tools/orderedmodel/internal/migrations"
	"github.com/the-dev-tools/orderedmodel/pkg/db/sqlitemem"
	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/logger/mocklogger"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
)

type BaseDBQueries struct {
	DB      *sql.DB
	t       *testing.T
	ctx     context.Context
	cleanup func()
}

type BaseTestServices struct {
	DB       *sql.DB
	Registry *sranked.Registry
	Items    *sranked.RankedService
	Answers  *sranked.RankedService
	Toppings *sranked.RankedService
}

// CreateBaseDB opens a private in-memory database with every migration
// applied.
func CreateBaseDB(ctx context.Context, t *testing.T) *BaseDBQueries {
	t.Helper()
	db, cleanup, err := sqlitemem.NewSQLiteMem(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrations.Run(ctx, db, migrations.Config{}, mocklogger.NewMockLogger()); err != nil {
		cleanup()
		t.Fatal(err)
	}
	return &BaseDBQueries{DB: db, t: t, ctx: ctx, cleanup: cleanup}
}

func (c BaseDBQueries) GetBaseServices() BaseTestServices {
	c.t.Helper()
	registry, err := sranked.NewRegistry(c.DB, config.DefaultModels(), c.Logger())
	if err != nil {
		c.t.Fatal(err)
	}
	lookup := func(name string) *sranked.RankedService {
		svc, err := registry.Lookup(name)
		if err != nil {
			c.t.Fatal(err)
		}
		return svc
	}
	return BaseTestServices{
		DB:       c.DB,
		Registry: registry,
		Items:    lookup("items"),
		Answers:  lookup("answers"),
		Toppings: lookup("pizza-toppings"),
	}
}

// CreateQuestion inserts a parent row for the answers model.
func (c BaseDBQueries) CreateQuestion(text string) idwrap.IDWrap {
	return c.insertParent("questions", "text", text)
}

// CreatePizza inserts a parent row for the pizza-toppings model.
func (c BaseDBQueries) CreatePizza(name string) idwrap.IDWrap {
	return c.insertParent("pizzas", "name", name)
}

func (c BaseDBQueries) insertParent(table, column, value string) idwrap.IDWrap {
	c.t.Helper()
	id := idwrap.NewNow()
	if _, err := c.DB.ExecContext(c.ctx, "INSERT INTO "+table+" (id, "+column+") VALUES (?, ?)", id, value); err != nil {
		c.t.Fatal(err)
	}
	return id
}

func (b BaseDBQueries) Close() {
	b.cleanup()
}

func (b BaseDBQueries) Logger() *slog.Logger {
	return mocklogger.NewMockLogger()
}

func AssertFatal[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Fatalf("got %v, expected %v", got, expected)
	}
}

func Assert[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func AssertNot[c comparable](t *testing.T, not, got c) {
	t.Helper()
	if got == not {
		t.Errorf("got %v, expected not %v", got, not)
	}
}

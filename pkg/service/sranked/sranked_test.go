package sranked_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
	"github.com/the-dev-tools/orderedmodel/pkg/testutil"
)

func labels(t *testing.T, svc *sranked.RankedService, partition *idwrap.IDWrap) []string {
	t.Helper()
	recs, err := svc.List(context.Background(), partition)
	require.NoError(t, err)
	out := make([]string, len(recs))
	for i, rec := range recs {
		assert.Equal(t, i, rec.Order, "rank of %s", rec.Label)
		out[i] = rec.Label
	}
	return out
}

func createItems(t *testing.T, svc *sranked.RankedService, partition *idwrap.IDWrap, names ...string) []mranked.Record {
	t.Helper()
	out := make([]mranked.Record, len(names))
	for i, name := range names {
		rec, err := svc.Create(context.Background(), partition, name)
		require.NoError(t, err)
		out[i] = rec
	}
	return out
}

func TestCreateAppends(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Items

	recs := createItems(t, svc, nil, "1", "2", "3", "4")
	for i, rec := range recs {
		testutil.Assert(t, i, rec.Order)
		got, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	}
}

func TestItemMoves(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Items
	m := svc.Manager()

	recs := createItems(t, svc, nil, "1", "2", "3", "4")

	_, err := m.MoveUp(ctx, recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, labels(t, svc, nil))

	_, err = m.MoveDown(ctx, recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, labels(t, svc, nil))

	_, err = m.MoveTo(ctx, recs[3].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1", "2", "3"}, labels(t, svc, nil))

	_, err = m.MoveTo(ctx, recs[3].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "3"}, labels(t, svc, nil))

	_, err = m.MoveTop(ctx, recs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2", "4"}, labels(t, svc, nil))

	_, err = m.MoveBottom(ctx, recs[2].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "3"}, labels(t, svc, nil))

	_, err = m.MoveAbove(ctx, recs[2].ID, recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2", "4"}, labels(t, svc, nil))

	_, err = m.MoveBelow(ctx, recs[2].ID, recs[3].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "3"}, labels(t, svc, nil))

	_, err = m.Swap(ctx, recs[0].ID, []idwrap.IDWrap{recs[2].ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "4", "1"}, labels(t, svc, nil))

	require.NoError(t, svc.VerifyAll(ctx))
}

func TestMoveToOutOfRangeLeavesRanks(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Items

	recs := createItems(t, svc, nil, "a", "b", "c")
	_, err := svc.Manager().MoveTo(ctx, recs[0].ID, 3)
	assert.ErrorIs(t, err, movable.ErrPositionOutOfRange)
	assert.Equal(t, []string{"a", "b", "c"}, labels(t, svc, nil))
}

func TestDeleteRedensifies(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Items

	recs := createItems(t, svc, nil, "a", "b", "c", "d")
	require.NoError(t, svc.Delete(ctx, recs[1].ID))
	assert.Equal(t, []string{"a", "c", "d"}, labels(t, svc, nil))

	_, err := svc.Get(ctx, recs[1].ID)
	assert.ErrorIs(t, err, sranked.ErrNoRecordFound)
	assert.ErrorIs(t, svc.Delete(ctx, recs[1].ID), movable.ErrItemNotFound)

	rec, err := svc.Create(ctx, nil, "e")
	require.NoError(t, err)
	testutil.Assert(t, 3, rec.Order)
}

func TestAnswersPartitionedByQuestion(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Answers
	m := svc.Manager()

	q1 := base.CreateQuestion("Which is the best pizza?")
	q2 := base.CreateQuestion("Which is the best topping?")

	a1 := createItems(t, svc, &q1, "margherita", "quattro", "funghi")
	a2 := createItems(t, svc, &q2, "basil", "olive")

	testutil.Assert(t, 0, a1[0].Order)
	testutil.Assert(t, 0, a2[0].Order)
	testutil.Assert(t, 1, a2[1].Order)

	_, err := m.MoveBottom(ctx, a1[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"quattro", "funghi", "margherita"}, labels(t, svc, &q1))
	assert.Equal(t, []string{"basil", "olive"}, labels(t, svc, &q2))

	require.NoError(t, svc.Delete(ctx, a1[1].ID))
	assert.Equal(t, []string{"funghi", "margherita"}, labels(t, svc, &q1))
	assert.Equal(t, []string{"basil", "olive"}, labels(t, svc, &q2))

	_, err = m.MoveAbove(ctx, a1[0].ID, a2[0].ID)
	assert.ErrorIs(t, err, movable.ErrIncompatiblePartition)
	_, err = m.Swap(ctx, a1[0].ID, []idwrap.IDWrap{a2[1].ID})
	assert.ErrorIs(t, err, movable.ErrIncompatiblePartition)
	assert.Equal(t, []string{"funghi", "margherita"}, labels(t, svc, &q1))
	assert.Equal(t, []string{"basil", "olive"}, labels(t, svc, &q2))

	rec, err := svc.Get(ctx, a2[1].ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Partition)
	assert.Equal(t, q2, *rec.Partition)
}

func TestCreateRequiresPartition(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Answers

	_, err := svc.Create(ctx, nil, "orphan")
	assert.ErrorIs(t, err, movable.ErrInvalidArgument)
}

func TestCreateUnderMissingParent(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Answers

	missing := idwrap.NewNow()
	_, err := svc.Create(ctx, &missing, "orphan")
	if !assert.ErrorIs(t, err, movable.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for unknown question, got %v", err)
	}
	assert.ErrorContains(t, err, missing.String())

	recs, err := svc.List(ctx, &missing)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPizzaToppings(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Toppings
	m := svc.Manager()

	p1 := base.CreatePizza("Hawaiian")
	p2 := base.CreatePizza("Napoli")

	t1 := createItems(t, svc, &p1, "pineapple", "ham", "cheese")
	createItems(t, svc, &p2, "anchovy", "caper")

	_, err := m.MoveTo(ctx, t1[2].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"cheese", "pineapple", "ham"}, labels(t, svc, &p1))
	assert.Equal(t, []string{"anchovy", "caper"}, labels(t, svc, &p2))

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCompactAll(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Answers

	q := base.CreateQuestion("gapped")
	ids := []idwrap.IDWrap{idwrap.NewNow(), idwrap.NewNow(), idwrap.NewNow()}
	for i, rank := range []int{3, 8, 10} {
		_, err := base.DB.ExecContext(ctx, `INSERT INTO answers (id, question_id, "order", answer) VALUES (?, ?, ?, ?)`,
			ids[i], q, rank, string(rune('a'+i)))
		require.NoError(t, err)
	}

	assert.ErrorIs(t, svc.VerifyAll(ctx), movable.ErrDensityViolation)

	n, err := svc.CompactAll(ctx)
	require.NoError(t, err)
	testutil.Assert(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, labels(t, svc, &q))
	require.NoError(t, svc.VerifyAll(ctx))
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	services := base.GetBaseServices()

	assert.Equal(t, []string{"items", "answers", "pizza-toppings"}, services.Registry.Names())
	_, err := services.Registry.Lookup("nope")
	assert.ErrorIs(t, err, sranked.ErrModelNotFound)

	_, err = sranked.NewRegistry(base.DB, []mranked.Model{
		{Name: "items", Table: "items"},
		{Name: "items", Table: "items"},
	}, nil)
	assert.ErrorIs(t, err, sranked.ErrDuplicateModel)
}

func TestUpdateRanksRollsBackOnMissingRow(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	svc := base.GetBaseServices().Items

	recs := createItems(t, svc, nil, "a", "b", "c")
	err := svc.WithTx(ctx, func(ctx context.Context, repo *sranked.Repo) error {
		return repo.UpdateRanks(ctx, []movable.RankUpdate{
			{ID: recs[0].ID, From: 0, To: 2},
			{ID: idwrap.NewNow(), From: 2, To: 0},
		})
	})
	assert.ErrorIs(t, err, sranked.ErrNoRecordFound)
	assert.Equal(t, []string{"a", "b", "c"}, labels(t, svc, nil))
}

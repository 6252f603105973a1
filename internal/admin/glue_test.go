package admin_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/orderedmodel/internal/admin"
	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
	"github.com/the-dev-tools/orderedmodel/pkg/movable"
	"github.com/the-dev-tools/orderedmodel/pkg/service/sranked"
	"github.com/the-dev-tools/orderedmodel/pkg/testutil"
)

func seed(t *testing.T, svc *sranked.RankedService, partition *idwrap.IDWrap, labels ...string) []mranked.Record {
	t.Helper()
	out := make([]mranked.Record, len(labels))
	for i, label := range labels {
		rec, err := svc.Create(context.Background(), partition, label)
		require.NoError(t, err)
		out[i] = rec
	}
	return out
}

func order(t *testing.T, svc *sranked.RankedService, partition *idwrap.IDWrap) []string {
	t.Helper()
	recs, err := svc.List(context.Background(), partition)
	require.NoError(t, err)
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Label
	}
	return out
}

func TestHandleMove(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	services := base.GetBaseServices()
	glue := admin.NewGlue(services.Registry, base.Logger())

	recs := seed(t, services.Items, nil, "a", "b", "c")

	target, err := glue.HandleMove(ctx, "items", recs[2].ID, movable.DirectionUp, "q=b&p=0")
	require.NoError(t, err)
	assert.Equal(t, "/admin/items/?p=0&q=b", target)
	assert.Equal(t, []string{"a", "c", "b"}, order(t, services.Items, nil))

	target, err = glue.HandleMove(ctx, "items", recs[0].ID, movable.DirectionUp, "")
	require.NoError(t, err, "moving the first row up is a no-op")
	assert.Equal(t, "/admin/items/", target)
	assert.Equal(t, []string{"a", "c", "b"}, order(t, services.Items, nil))

	_, err = glue.HandleMove(ctx, "nope", recs[0].ID, movable.DirectionUp, "")
	assert.ErrorIs(t, err, sranked.ErrModelNotFound)

	_, err = glue.HandleMove(ctx, "items", idwrap.NewNow(), movable.DirectionDown, "")
	assert.ErrorIs(t, err, movable.ErrItemNotFound)
}

func TestHandleMoveTo(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	services := base.GetBaseServices()
	glue := admin.NewGlue(services.Registry, base.Logger())

	recs := seed(t, services.Items, nil, "0", "1", "2", "3")

	_, err := glue.HandleMoveTo(ctx, "items", recs[3].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "0", "1", "2"}, order(t, services.Items, nil))

	_, err = glue.HandleMoveTo(ctx, "items", recs[3].ID, 4, "")
	assert.ErrorIs(t, err, movable.ErrPositionOutOfRange)
	assert.Equal(t, []string{"3", "0", "1", "2"}, order(t, services.Items, nil))
}

func TestHandleMoveInline(t *testing.T) {
	ctx := context.Background()
	base := testutil.CreateBaseDB(ctx, t)
	defer base.Close()
	services := base.GetBaseServices()
	glue := admin.NewGlue(services.Registry, base.Logger())

	q1 := base.CreateQuestion("first?")
	q2 := base.CreateQuestion("second?")
	a1 := seed(t, services.Answers, &q1, "yes", "no")
	seed(t, services.Answers, &q2, "maybe", "never")

	_, err := glue.HandleMoveInline(ctx, "answers", q1, a1[1].ID, movable.DirectionUp, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "yes"}, order(t, services.Answers, &q1))
	assert.Equal(t, []string{"maybe", "never"}, order(t, services.Answers, &q2))

	_, err = glue.HandleMoveInline(ctx, "answers", q2, a1[0].ID, movable.DirectionDown, "")
	assert.ErrorIs(t, err, movable.ErrItemNotFound)
	assert.Equal(t, []string{"no", "yes"}, order(t, services.Answers, &q1))
}

func TestRenderControls(t *testing.T) {
	glue := admin.NewGlue(nil, nil)
	model := mranked.Model{Name: "items"}
	rec := mranked.Record{ID: idwrap.NewNow(), Order: 0}

	c := glue.RenderControls(model, rec, 3, "q=pep&p=1")
	qs := url.Values{admin.QueryStringParam: {"p=1&q=pep"}}.Encode()
	assert.Equal(t, "/admin/items/"+rec.ID.String()+"/move-up?"+qs, c.UpURL)
	assert.Equal(t, "/admin/items/"+rec.ID.String()+"/move-down?"+qs, c.DownURL)
	assert.False(t, c.MoveUp)
	assert.True(t, c.MoveDown)

	rec.Order = 2
	c = glue.RenderControls(model, rec, 3, "")
	assert.Equal(t, "/admin/items/"+rec.ID.String()+"/move-up", c.UpURL)
	assert.True(t, c.MoveUp)
	assert.False(t, c.MoveDown)

	parent := idwrap.NewNow()
	rec.Partition = &parent
	c = glue.RenderInlineControls(mranked.Model{Name: "answers"}, rec, 3, "")
	assert.Equal(t, "/admin/answers/"+parent.String()+"/"+rec.ID.String()+"/move-down", c.DownURL)
}

func TestListURL(t *testing.T) {
	assert.Equal(t, "/admin/items/", admin.ListURL("items", ""))
	assert.Equal(t, "/admin/items/?o=1", admin.ListURL("items", "o=1"))
	assert.Equal(t, "/admin/items/", admin.ListURL("items", "%zz"))
	assert.Equal(t, "/admin/items/?next=%2F%2Fevil.example.com", admin.ListURL("items", "next=//evil.example.com"))
}

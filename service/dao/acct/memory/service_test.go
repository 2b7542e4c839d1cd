package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv := New()
	for id := 5; id >= 1; id-- {
		assert.NoError(t, srv.Save(ctx, &acct.Record{ID: id, PID: id + 1, ExitCode: id % 2}))
	}
	list, err := srv.List(ctx)
	assert.NoError(t, err)
	if assert.Len(t, list, 5) {
		assert.Equal(t, 1, list[0].ID)
		assert.Equal(t, 5, list[4].ID)
	}
	odd, err := srv.List(ctx, dao.NewIntParameter("ExitCode", 1))
	assert.NoError(t, err)
	assert.Len(t, odd, 3)

	_, err = srv.Load(ctx, 9)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.NoError(t, srv.Delete(ctx, 1))
	assert.ErrorIs(t, srv.Delete(ctx, 1), dao.ErrNotFound)
}

package dashboard_test

import (
	"context"
	"testing"
	"time"

	"jam/internal/cache"
	"jam/internal/dashboard"
	"jam/internal/models"
	"jam/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotScopedAndCached(t *testing.T) {
	gdb := testutil.NewDB(t)
	log := testutil.Logger(t)
	alice := testutil.NewUser(t, gdb, "alice@test", false)
	bob := testutil.NewUser(t, gdb, "bob@test", false)

	mine := models.Job{Title: "mine"}
	mine.OwnerID = alice
	require.NoError(t, gdb.Create(&mine).Error)
	theirs := models.Job{Title: "theirs"}
	theirs.OwnerID = bob
	require.NoError(t, gdb.Create(&theirs).Error)

	app := models.JobApplication{JobID: mine.ID, Date: time.Now().Add(-30 * 24 * time.Hour), Status: models.StatusApplied}
	app.OwnerID = alice
	require.NoError(t, gdb.Create(&app).Error)

	mr := miniredis.RunT(t)
	c, err := cache.New("redis://"+mr.Addr(), log)
	require.NoError(t, err)

	svc := &dashboard.Service{
		DB:    gdb,
		Log:   log,
		Opts:  dashboard.Options{ChaseAfter: 14 * 24 * time.Hour, FeedLimit: 10},
		Cache: c,
		TTL:   time.Minute,
	}

	ctx := context.Background()
	snap, err := svc.Snapshot(ctx, alice, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Statistics.Jobs)
	assert.Equal(t, 1, snap.Statistics.JobApplicationPending)
	require.Len(t, snap.NeedsChase, 1)
	assert.Equal(t, "mine", snap.NeedsChase[0].Title)

	// served from cache until invalidated
	extra := models.Job{Title: "extra"}
	extra.OwnerID = alice
	require.NoError(t, gdb.Create(&extra).Error)

	snap, err = svc.Snapshot(ctx, alice, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Statistics.Jobs)

	svc.Invalidate(ctx, alice)
	snap, err = svc.Snapshot(ctx, alice, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Statistics.Jobs)

	empty, err := svc.Snapshot(ctx, 999, time.Now())
	require.NoError(t, err)
	assert.Equal(t, dashboard.Statistics{}, empty.Statistics)
}

package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"jam/internal/dashboard"
	"jam/internal/models"
	"jam/internal/seed"
	"jam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSeed(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "demo@test", false)
	now := time.Now()

	c, err := seed.Seed(context.Background(), gdb, owner, now)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Jobs)
	assert.Equal(t, 2, c.Applications)

	var n int64
	require.NoError(t, gdb.Model(&models.Job{}).Where("owner_id = ?", owner).Count(&n).Error)
	assert.EqualValues(t, 3, n)

	svc := &dashboard.Service{DB: gdb, Log: testutil.Logger(t), Opts: dashboard.Options{ChaseAfter: 14 * 24 * time.Hour, FeedLimit: 20}}
	snap, err := svc.Snapshot(context.Background(), owner, now)
	require.NoError(t, err)
	assert.Equal(t, dashboard.Statistics{Jobs: 3, JobApplications: 2, JobApplicationPending: 2, Interviews: 1}, snap.Statistics)
	assert.Len(t, snap.UpcomingInterviews, 1)
	assert.Len(t, snap.UpcomingDeadlines, 1)
	require.Len(t, snap.NeedsChase, 1)
	assert.Equal(t, "Backend Engineer", snap.NeedsChase[0].Title)
}

func TestSeedRollsBack(t *testing.T) {
	gdb := testutil.NewDB(t)
	owner := testutil.NewUser(t, gdb, "demo@test", false)

	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("fail_jobs", func(tx *gorm.DB) {
		if tx.Statement.Table == "jobs" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := seed.Seed(context.Background(), gdb, owner, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed jobs")

	for _, m := range []any{&models.Company{}, &models.Location{}, &models.Keyword{}, &models.Person{}} {
		var n int64
		require.NoError(t, gdb.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}

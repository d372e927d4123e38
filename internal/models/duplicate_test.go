package models_test

import (
	"testing"

	"jam/internal/models"
	"jam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newJob(t *testing.T, gdb *gorm.DB, owner uint64, dup *uint64) uint64 {
	t.Helper()
	j := models.Job{Title: "job", DuplicateID: dup}
	j.OwnerID = owner
	require.NoError(t, gdb.Create(&j).Error)
	return j.ID
}

func TestCheckDuplicate(t *testing.T) {
	gdb := testutil.NewDB(t)
	alice := testutil.NewUser(t, gdb, "alice@test", false)
	bob := testutil.NewUser(t, gdb, "bob@test", false)

	a := newJob(t, gdb, alice, nil)
	b := newJob(t, gdb, alice, &a)
	c := newJob(t, gdb, alice, &b)
	foreign := newJob(t, gdb, bob, nil)

	assert.NoError(t, models.CheckDuplicate(gdb, alice, 0, c))
	assert.NoError(t, models.CheckDuplicate(gdb, alice, c, a))

	assert.ErrorIs(t, models.CheckDuplicate(gdb, alice, a, a), models.ErrDuplicateSelf)
	assert.ErrorIs(t, models.CheckDuplicate(gdb, alice, a, c), models.ErrDuplicateCycle)
	assert.ErrorIs(t, models.CheckDuplicate(gdb, alice, 0, foreign), models.ErrDuplicateUnknown)
	assert.ErrorIs(t, models.CheckDuplicate(gdb, alice, 0, 9999), models.ErrDuplicateUnknown)
}

func TestLocationLabel(t *testing.T) {
	var nilLoc *models.Location
	assert.Equal(t, "", nilLoc.Label())
	assert.Equal(t, "Remote", (&models.Location{Remote: true}).Label())
	assert.Equal(t, "Leeds, UK", (&models.Location{City: "Leeds", Country: "UK"}).Label())
	assert.Equal(t, "Leeds, UK (remote)", (&models.Location{City: "Leeds", Country: "UK", Remote: true}).Label())
}

func TestIsPending(t *testing.T) {
	assert.True(t, models.IsPending(models.StatusApplied))
	assert.True(t, models.IsPending(models.StatusInterview))
	assert.False(t, models.IsPending(models.StatusRejected))
}

package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func chainQuery(t *testing.T, d gorm.Dialector) string {
	t.Helper()
	gdb, err := gorm.Open(d, &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var row Job
		return lockChain(tx).Model(&Job{}).Select("id, duplicate_id").Where("id = ?", 1).Take(&row)
	})
}

func TestLockChainOnPostgres(t *testing.T) {
	q := chainQuery(t, postgres.Open("host=localhost user=jam dbname=jam sslmode=disable"))
	assert.Contains(t, q, "FOR UPDATE")
}

func TestLockChainSkippedOnSQLite(t *testing.T) {
	q := chainQuery(t, sqlite.Open("file::memory:"))
	assert.NotContains(t, q, "FOR UPDATE")
}

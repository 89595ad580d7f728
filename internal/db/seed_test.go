package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/db/dbtest"
)

func TestSeedTestData(t *testing.T) {
	gdb := dbtest.Open(t)

	// twice: the seed must reset instead of failing on existing rows
	require.NoError(t, db.SeedTestData(gdb))
	require.NoError(t, db.SeedTestData(gdb))

	var riddles []db.Riddle
	require.NoError(t, gdb.Order("id").Find(&riddles).Error)
	assert.Len(t, riddles, 5)
	for _, r := range riddles {
		assert.NotEmpty(t, r.Texts.Data()["en"], "every seeded riddle has an English variant")
	}

	var profiles int64
	require.NoError(t, gdb.Model(&db.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(6), profiles)

	var first db.Profile
	require.NoError(t, gdb.First(&first, "id = ?", db.SeedID("profile", 1)).Error)
	assert.Equal(t, "kavya", first.Username)
	assert.Equal(t, 2, first.FollowingCount)

	var edges int64
	require.NoError(t, gdb.Model(&db.FollowEdge{}).Where("follower_id = ?", first.ID).Count(&edges).Error)
	assert.Equal(t, int64(2), edges)
}

package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	migrations, err := Load()
	require.NoError(t, err)
	require.Len(t, migrations, 4)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Up)
		assert.NotEmpty(t, m.Down)
	}
	assert.Equal(t, "create_users", migrations[0].Name)
	assert.Contains(t, migrations[3].Up, "CREATE TABLE IF NOT EXISTS assignments")
}

func TestLoadRejectsIncompletePairs(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_init_up.sql":   {Data: []byte("CREATE TABLE a ();")},
		"sql/0001_init_down.sql": {Data: []byte("DROP TABLE a;")},
		"sql/0002_more_up.sql":   {Data: []byte("CREATE TABLE b ();")},
	}

	_, err := load(fsys, "sql")
	assert.ErrorContains(t, err, "incomplete migration for version 2")
}

func TestLoadSkipsUnrelatedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/README.md":           {Data: []byte("notes")},
		"sql/seed.sql":            {Data: []byte("INSERT")},
		"sql/0010_late_up.sql":    {Data: []byte("up10")},
		"sql/0010_late_down.sql":  {Data: []byte("down10")},
		"sql/0002_early_up.sql":   {Data: []byte("up2")},
		"sql/0002_early_down.sql": {Data: []byte("down2")},
	}

	migrations, err := load(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, 10, migrations[1].Version)
	assert.Equal(t, "late", migrations[1].Name)
}

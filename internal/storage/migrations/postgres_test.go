package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_Ordered(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.Equal(t, []string{"001_init.sql", "002_seed_cities.sql", "003_city_requests.sql"}, files)
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1], files[i])
	}
}

func TestInitMigration_UniqueKeys(t *testing.T) {
	data, err := fs.ReadFile(PostgresFS, "postgres/001_init.sql")
	require.NoError(t, err)
	sql := string(data)

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS bpi_snapshots")
	assert.Contains(t, sql, "UNIQUE (city_id, period)")
	assert.Contains(t, sql, "email      TEXT NOT NULL UNIQUE")
	assert.Equal(t, strings.Count(sql, "CREATE TABLE"), strings.Count(sql, "CREATE TABLE IF NOT EXISTS"))
}

func TestCityRequestsMigration_CaseInsensitiveKey(t *testing.T) {
	data, err := fs.ReadFile(PostgresFS, "postgres/003_city_requests.sql")
	require.NoError(t, err)
	sql := string(data)

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS city_requests")
	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS idx_city_requests_city_state")
	assert.Contains(t, sql, "(lower(city), lower(state))")
}

package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		base := strings.TrimPrefix(n, "migrations/")
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", base)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaEnforcesLifecycleTimestamps(t *testing.T) {
	b, err := migrationsFS.ReadFile("migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	schema := string(b)

	assert.Contains(t, schema, "(status = 'COMPLETED') = (completed_at IS NOT NULL)")
	assert.Contains(t, schema, "(status = 'ABANDONED') = (abandoned_at IS NOT NULL)")
	assert.Contains(t, schema, "REFERENCES descent_sessions (session_id) ON DELETE CASCADE")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, gormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel("info"))
	assert.Equal(t, gormlogger.Error, gormLogLevel("error"))
}

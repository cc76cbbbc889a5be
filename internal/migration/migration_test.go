package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSetsArePaired(t *testing.T) {
	for _, set := range []Set{ControlPlane, Tenant} {
		entries, err := fs.ReadDir(embeddedMigrations, string(set))
		require.NoError(t, err, set)
		require.NotEmpty(t, entries, set)

		ups := map[string]bool{}
		downs := map[string]bool{}
		for _, e := range entries {
			name := e.Name()
			switch {
			case strings.HasSuffix(name, ".up.sql"):
				ups[strings.TrimSuffix(name, ".up.sql")] = true
			case strings.HasSuffix(name, ".down.sql"):
				downs[strings.TrimSuffix(name, ".down.sql")] = true
			default:
				t.Fatalf("unexpected file %s in %s", name, set)
			}
		}
		assert.Equal(t, sortedKeys(ups), sortedKeys(downs), set)
	}
}

func TestTenantSchemaHasIdentityUniqueIndex(t *testing.T) {
	raw, err := fs.ReadFile(embeddedMigrations, "sql/tenant/000002_play_records.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "UNIQUE INDEX IF NOT EXISTS uidx_play_records_identity")
	assert.Contains(t, string(raw), "(tenant_id, identity)")
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil, Tenant))
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

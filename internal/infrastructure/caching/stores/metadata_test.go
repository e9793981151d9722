package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
)

func TestMetadataStore(t *testing.T) {
	store := NewMetadataStore(nil)

	_, ok := store.Get("tenant_test")
	assert.False(t, ok)

	store.Set("tenant_test", &types.Snapshot{DBName: "tenant_test"})
	snap, ok := store.Get("tenant_test")
	require.True(t, ok)
	assert.Equal(t, "tenant_test", snap.DBName)

	replacement := &types.Snapshot{DBName: "tenant_test"}
	store.Set("tenant_test", replacement)
	snap, _ = store.Get("tenant_test")
	assert.Same(t, replacement, snap, "set replaces the published pointer")

	store.Set("tenant_other", &types.Snapshot{DBName: "tenant_other"})
	assert.ElementsMatch(t, []string{"tenant_test", "tenant_other"}, store.TenantNames())

	store.Delete("tenant_test")
	_, ok = store.Get("tenant_test")
	assert.False(t, ok)

	store.Clear()
	assert.Empty(t, store.TenantNames())
}

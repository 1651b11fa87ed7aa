package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemorph/pagemorph/pkg/types"
)

func sampleSet() types.RuleSet {
	return types.RuleSet{
		"dog": {Original: "dog", Replacement: "cat", Enabled: true},
		"Cat": {Original: "Cat", Replacement: "Z", CaseSensitive: true, Enabled: true},
		"off": {Original: "off", Replacement: "on", Enabled: false},
	}
}

// exerciseStore runs the shared Store contract against an implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Fresh store: empty set, enabled by default.
	set, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)

	enabled, err := s.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	// Round-trip a rule set.
	require.NoError(t, s.Save(ctx, sampleSet()))
	set, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, set, 3)
	assert.Equal(t, "cat", set["dog"].Replacement)
	assert.True(t, set["Cat"].CaseSensitive)
	assert.False(t, set["off"].Enabled)

	// Save replaces wholesale.
	require.NoError(t, s.Save(ctx, types.RuleSet{
		"only": {Original: "only", Replacement: "x", Enabled: true},
	}))
	set, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Contains(t, set, "only")

	// Enabled flag round-trips.
	require.NoError(t, s.SetEnabled(ctx, false))
	enabled, err = s.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, s.SetEnabled(ctx, true))
	enabled, err = s.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	require.NoError(t, s.Save(ctx, sampleSet()))
	set, err := s.Load(ctx)
	require.NoError(t, err)

	set["dog"].Replacement = "mutated"
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cat", again["dog"].Replacement)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSet()))
	require.NoError(t, s.SetEnabled(ctx, false))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	set, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, set, 3)

	enabled, err := s.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestNew_Dispatch(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
	s.Close()

	s, err = New(Config{Path: filepath.Join(t.TempDir(), "rules.db")})
	require.NoError(t, err)
	_, ok = s.(*SQLiteStore)
	assert.True(t, ok)
	s.Close()
}

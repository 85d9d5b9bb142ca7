package leveldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formdraft/internal/storetest"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		s, err := Open(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("form-a", "one"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("form-a")
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

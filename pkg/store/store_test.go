package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formdraft/pkg/types"
)

func TestOpen_EveryBackend(t *testing.T) {
	for _, backend := range types.Backends() {
		t.Run(backend, func(t *testing.T) {
			s, err := Open(types.StoreConfig{Backend: backend, DataDir: t.TempDir()})
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set(types.StorageKey("draft-1"), "v"))
			got, err := s.Get(types.StorageKey("draft-1"))
			require.NoError(t, err)
			assert.Equal(t, "v", got)
		})
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(types.StoreConfig{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)

	_, err = Open(types.StoreConfig{Backend: types.BackendBolt})
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)
}

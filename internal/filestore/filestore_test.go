package filestore

import (
	"os"
	"path/filepath"
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
	require.NoError(t, s.Set("form-b", "two"))
	require.NoError(t, s.Set("form-a", "one"))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t,
		"{\"key\":\"form-a\",\"value\":\"one\"}\n{\"key\":\"form-b\",\"value\":\"two\"}\n",
		string(data))

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("form-a")
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

func TestOpen_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := "{\"key\":\"form-a\",\"value\":\"one\"}\n" +
		"not json\n" +
		"\n" +
		"{\"value\":\"no key\"}\n" +
		"{\"key\":\"form-b\",\"value\":\"two\"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	keys, err := s.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{"form-a", "form-b"}, keys)
}

func TestWriteJSONL_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	require.NoError(t, writeJSONL(path, []entryJSON{{Key: "form-a", Value: "x"}}))

	matches, err := filepath.Glob(filepath.Join(dir, ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "form-draft-1", StorageKey("draft-1"))

	key, ok := FormKey("form-draft-1")
	assert.True(t, ok)
	assert.Equal(t, "draft-1", key)

	_, ok = FormKey("settings")
	assert.False(t, ok)
}

func TestEncodeRecord_Format(t *testing.T) {
	text, err := EncodeRecord(DraftRecord{
		Data:      map[string]any{"title": "Hello"},
		Timestamp: 1700000000000,
		Version:   RecordVersion,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"title":"Hello"},"timestamp":1700000000000,"version":"1.0"}`, text)
}

func TestEncodeRecord_NilDataWritesObject(t *testing.T) {
	text, err := EncodeRecord(DraftRecord{Timestamp: 1, Version: RecordVersion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{},"timestamp":1,"version":"1.0"}`, text)
}

func TestDecodeRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		r, err := DecodeRecord(`{"data":{"price":12.5,"tags":["a"]},"timestamp":42,"version":"1.0"}`)
		require.NoError(t, err)
		assert.Equal(t, int64(42), r.Timestamp)
		assert.Equal(t, "1.0", r.Version)
		assert.Equal(t, 12.5, r.Data["price"])
		assert.Equal(t, []any{"a"}, r.Data["tags"])
	})

	t.Run("missing data decodes as empty map", func(t *testing.T) {
		r, err := DecodeRecord(`{"timestamp":42,"version":"1.0"}`)
		require.NoError(t, err)
		assert.NotNil(t, r.Data)
		assert.Empty(t, r.Data)
	})

	for _, text := range []string{"not json", `"a string"`, `[1,2]`, "null", ""} {
		t.Run("rejects "+text, func(t *testing.T) {
			_, err := DecodeRecord(text)
			assert.Error(t, err)
		})
	}
}

func TestMergeData_OverrideWins(t *testing.T) {
	base := map[string]any{"title": "", "price": 0}
	override := map[string]any{"title": "Lamp"}

	merged := MergeData(base, override)
	assert.Equal(t, map[string]any{"title": "Lamp", "price": 0}, merged)

	merged["price"] = 5
	assert.Equal(t, 0, base["price"], "base must not be modified")
}

func TestErrorKinds_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")

	we := &StoreWriteError{Key: "form-a", Op: "save", Err: cause}
	assert.ErrorIs(t, we, cause)
	assert.True(t, IsRetryable(we))
	assert.Contains(t, we.Error(), "quota exceeded")

	re := &StoreReadError{Key: "form-a", Err: cause}
	assert.ErrorIs(t, re, cause)
	assert.False(t, IsRetryable(re))

	se := &SerializationError{Key: "form-a", Err: cause}
	assert.ErrorIs(t, se, cause)
	assert.False(t, IsRetryable(se))
}

func TestCloneData_Deep(t *testing.T) {
	src := map[string]any{
		"dims": map[string]any{"h": 1.0},
		"tags": []any{"a", map[string]any{"k": "v"}},
	}
	c := CloneData(src)
	c["dims"].(map[string]any)["h"] = 2.0
	c["tags"].([]any)[1].(map[string]any)["k"] = "changed"

	if got := src["dims"].(map[string]any)["h"]; got != 1.0 {
		t.Errorf("nested map leaked: h = %v", got)
	}
	if got := src["tags"].([]any)[1].(map[string]any)["k"]; got != "v" {
		t.Errorf("nested slice leaked: k = %v", got)
	}
	if CloneData(nil) == nil {
		t.Error("CloneData(nil) should return an empty map")
	}
}

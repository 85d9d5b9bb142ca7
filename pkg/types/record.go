package types

import (
	"encoding/json"
	"strings"
)

// RecordVersion is the schema version written into every DraftRecord.
const RecordVersion = "1.0"

// StorageKeyPrefix namespaces draft keys so they cannot collide with
// unrelated data kept in the same store.
const StorageKeyPrefix = "form-"

// DraftRecord is the envelope persisted for one form instance. Data is the
// full form snapshot at save time, never a diff.
type DraftRecord struct {
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"` // milliseconds since epoch
	Version   string         `json:"version"`
}

// SavedDataInfo describes a stored draft without merging it into form state.
type SavedDataInfo struct {
	HasData   bool   `json:"has_data"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// StorageKey returns the namespaced store key for a caller-supplied form key.
func StorageKey(key string) string {
	return StorageKeyPrefix + key
}

// FormKey strips the namespace prefix from a store key. The second result
// is false when storageKey does not carry the prefix.
func FormKey(storageKey string) (string, bool) {
	return strings.CutPrefix(storageKey, StorageKeyPrefix)
}

// EncodeRecord serializes a DraftRecord to its stored JSON text.
func EncodeRecord(r DraftRecord) (string, error) {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecord parses stored JSON text into a DraftRecord. Text that is not
// a JSON object yields an error; a missing data field decodes as an empty map.
func DecodeRecord(text string) (DraftRecord, error) {
	var r DraftRecord
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return DraftRecord{}, err
	}
	if strings.TrimSpace(text) == "null" {
		return DraftRecord{}, errNullRecord
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	return r, nil
}

// MergeData returns a new map holding deep copies of base overlaid with
// override. Keys in override win. Neither input is modified.
func MergeData(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneData returns a deep copy of data; a nil map yields an empty map.
func CloneData(data map[string]any) map[string]any {
	return MergeData(nil, data)
}

// cloneValue copies the JSON container types. Other values are returned
// as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		return MergeData(nil, t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

package types

import "errors"

// StoreConfig holds backend selection and parameters for opening a Store.
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendMemory  = "memory"
	BackendSQLite  = "sqlite"
	BackendFile    = "file"
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
)

// StoreConfig validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data directory must not be empty for on-disk backends")
)

// knownBackends lists the backends that Validate accepts, mapped to whether
// the backend keeps its data on disk.
var knownBackends = map[string]bool{
	BackendMemory:  false,
	BackendSQLite:  true,
	BackendFile:    true,
	BackendBolt:    true,
	BackendLevelDB: true,
}

// Backends returns the names of all supported backends.
func Backends() []string {
	return []string{BackendMemory, BackendSQLite, BackendFile, BackendBolt, BackendLevelDB}
}

// Validate checks that the StoreConfig is well-formed. It returns a sentinel
// error from this package on failure.
func (c StoreConfig) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	onDisk, ok := knownBackends[c.Backend]
	if !ok {
		return ErrBackendUnknown
	}
	if onDisk && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}

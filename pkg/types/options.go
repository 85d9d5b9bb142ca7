package types

import (
	"errors"
	"time"
)

// Option defaults.
const (
	DefaultAutoSaveDelay = time.Second
	DefaultMaxAge        = 24 * time.Hour
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second

	// SavedDisplayDelay is how long the saved status stays visible before
	// the engine resets it to idle.
	SavedDisplayDelay = 2 * time.Second
)

// Options configures the persistence engine and the auto-save orchestrator.
type Options struct {
	// AutoSave batches writes through the debounce; false writes
	// synchronously on every save.
	AutoSave      bool          `mapstructure:"auto_save" yaml:"auto_save"`
	AutoSaveDelay time.Duration `mapstructure:"auto_save_delay" yaml:"auto_save_delay"`

	// MaxAge is the age past which a stored draft is discarded on load.
	// Zero disables expiry.
	MaxAge time.Duration `mapstructure:"max_age" yaml:"max_age"`

	// Enabled is the master switch for the orchestrator's triggers and retries.
	Enabled                bool          `mapstructure:"enabled" yaml:"enabled"`
	SaveOnBlur             bool          `mapstructure:"save_on_blur" yaml:"save_on_blur"`
	SaveOnVisibilityChange bool          `mapstructure:"save_on_visibility_change" yaml:"save_on_visibility_change"`
	MaxRetries             int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay             time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// DefaultOptions returns the recognized defaults for every option.
func DefaultOptions() Options {
	return Options{
		AutoSave:               true,
		AutoSaveDelay:          DefaultAutoSaveDelay,
		MaxAge:                 DefaultMaxAge,
		Enabled:                true,
		SaveOnBlur:             true,
		SaveOnVisibilityChange: true,
		MaxRetries:             DefaultMaxRetries,
		RetryDelay:             DefaultRetryDelay,
	}
}

// Options validation errors.
var (
	ErrNegativeDelay   = errors.New("delays must not be negative")
	ErrNegativeMaxAge  = errors.New("max age must not be negative")
	ErrNegativeRetries = errors.New("max retries must not be negative")
)

// Validate checks that no option holds a negative value.
func (o Options) Validate() error {
	if o.AutoSaveDelay < 0 || o.RetryDelay < 0 {
		return ErrNegativeDelay
	}
	if o.MaxAge < 0 {
		return ErrNegativeMaxAge
	}
	if o.MaxRetries < 0 {
		return ErrNegativeRetries
	}
	return nil
}

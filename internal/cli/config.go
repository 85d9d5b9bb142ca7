package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/formdraft/internal/paths"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyDraft   = "draft"
)

// settings is the resolved configuration for one invocation.
type settings struct {
	Store   types.StoreConfig
	Options types.Options
}

// configFile is the layout written to config.yaml by init.
type configFile struct {
	Backend string        `yaml:"backend"`
	DataDir string        `yaml:"data_dir,omitempty"`
	Draft   draftDefaults `yaml:"draft"`
}

// draftDefaults mirrors types.Options with durations spelled as strings.
type draftDefaults struct {
	AutoSave               bool   `yaml:"auto_save"`
	AutoSaveDelay          string `yaml:"auto_save_delay"`
	MaxAge                 string `yaml:"max_age"`
	Enabled                bool   `yaml:"enabled"`
	SaveOnBlur             bool   `yaml:"save_on_blur"`
	SaveOnVisibilityChange bool   `yaml:"save_on_visibility_change"`
	MaxRetries             int    `yaml:"max_retries"`
	RetryDelay             string `yaml:"retry_delay"`
}

func defaultConfigFile(dataDir string) configFile {
	o := types.DefaultOptions()
	return configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Draft: draftDefaults{
			AutoSave:               o.AutoSave,
			AutoSaveDelay:          o.AutoSaveDelay.String(),
			MaxAge:                 o.MaxAge.String(),
			Enabled:                o.Enabled,
			SaveOnBlur:             o.SaveOnBlur,
			SaveOnVisibilityChange: o.SaveOnVisibilityChange,
			MaxRetries:             o.MaxRetries,
			RetryDelay:             o.RetryDelay.String(),
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# draftctl configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

// loadSettings reads config.yaml from configDir and applies flag overrides.
// A missing config.yaml is not an error.
func loadSettings(configDir string, f rootFlags) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	for key, value := range optionDefaults(types.DefaultOptions()) {
		v.SetDefault(cfgKeyDraft+"."+key, value)
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	// Prefill so a partial draft section keeps defaults for absent keys.
	s := settings{Options: types.DefaultOptions()}
	if err := v.UnmarshalKey(cfgKeyDraft, &s.Options); err != nil {
		return settings{}, fmt.Errorf("decode draft options: %w", err)
	}
	if err := s.Options.Validate(); err != nil {
		return settings{}, fmt.Errorf("draft options: %w", err)
	}

	s.Store.Backend = v.GetString(cfgKeyBackend)
	if f.backend != "" {
		s.Store.Backend = f.backend
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	s.Store.DataDir = dataDir
	if err := s.Store.Validate(); err != nil {
		return settings{}, fmt.Errorf("%w: %q", err, s.Store.Backend)
	}
	return s, nil
}

// optionDefaults flattens o into viper keys under the draft section.
func optionDefaults(o types.Options) map[string]any {
	return map[string]any{
		"auto_save":                 o.AutoSave,
		"auto_save_delay":           o.AutoSaveDelay,
		"max_age":                   o.MaxAge,
		"enabled":                   o.Enabled,
		"save_on_blur":              o.SaveOnBlur,
		"save_on_visibility_change": o.SaveOnVisibilityChange,
		"max_retries":               o.MaxRetries,
		"retry_delay":               o.RetryDelay,
	}
}

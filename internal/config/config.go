// Package config loads icdtree settings from defaults, a YAML file,
// ICDTREE_* environment variables and command-line flags, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "ICDTREE"

// DotEnvFile is read from the working directory, if present, before the
// environment is consulted. Variables already set are not overwritten.
var DotEnvFile = ".env"

// FlagBindings maps config keys to the command-line flags that set them.
var FlagBindings = map[string]string{
	"input.path":            "input",
	"input.layout":          "layout",
	"input.empty_code":      "empty-code",
	"input.on_malformed":    "on-malformed",
	"tables.chapters.path":  "chapters",
	"tables.sections.path":  "sections",
	"tables.chapters.sheet": "chapters-sheet",
	"tables.sections.sheet": "sections-sheet",
	"output.path":           "out",
	"output.format":         "format",
	"output.delimiter":      "delimiter",
	"output.columns":        "columns",
	"filter.expr":           "filter",
	"filter.lang":           "filter-lang",
	"workers":               "workers",
	"log.level":             "log-level",
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a manager, binds any known flags present in flags
// (which may be nil), and loads the initial config.
func NewManager(cfgFile string, flags *pflag.FlagSet) (*Manager, error) {
	cm := &Manager{v: viper.New()}

	if err := cm.initViper(cfgFile, flags); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up defaults, environment, flags and the config file.
func (cm *Manager) initViper(cfgFile string, flags *pflag.FlagSet) error {
	setDefaults(cm.v, DefaultConfig())

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", DotEnvFile, err)
	}

	// Environment variables with ICDTREE_ prefix, e.g. ICDTREE_OUTPUT_FORMAT
	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := cm.v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	// Config file
	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("icdtree")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.icdtree")
	}

	// Try to read config file (not required unless named explicitly)
	if err := cm.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.layout", d.Input.Layout)
	v.SetDefault("input.empty_code", d.Input.EmptyCode)
	v.SetDefault("input.on_malformed", d.Input.OnMalformed)
	v.SetDefault("tables.chapters.path", d.Tables.Chapters.Path)
	v.SetDefault("tables.chapters.label_column", d.Tables.Chapters.LabelColumn)
	v.SetDefault("tables.chapters.sheet", d.Tables.Chapters.Sheet)
	v.SetDefault("tables.sections.path", d.Tables.Sections.Path)
	v.SetDefault("tables.sections.label_column", d.Tables.Sections.LabelColumn)
	v.SetDefault("tables.sections.sheet", d.Tables.Sections.Sheet)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.delimiter", d.Output.Delimiter)
	v.SetDefault("output.sheet", d.Output.Sheet)
	v.SetDefault("output.columns", d.Output.Columns)
	v.SetDefault("filter.expr", d.Filter.Expr)
	v.SetDefault("filter.lang", d.Filter.Lang)
	v.SetDefault("filter.timeout_ms", d.Filter.TimeoutMS)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log.level", d.Log.Level)
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile is the path of the file that was read, or "".
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file. Invalid edits are
// passed to onError and the previous config stays in effect.
func (cm *Manager) WatchConfig(onError func(error)) {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading %s: %w", e.Name, err))
			}
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# icdtree configuration
# Every key can also be set with an ICDTREE_ environment variable,
# e.g. ICDTREE_OUTPUT_FORMAT=xlsx or ICDTREE_TABLES_SECTIONS_PATH=sections.csv

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

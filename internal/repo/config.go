package repo

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

const (
	// ConfigFileName is the per-repository configuration file, committed
	// at the repository root.
	ConfigFileName = ".lockstep.yaml"

	// DataDirName holds per-clone state (ledger cache, debug log). It is
	// never committed.
	DataDirName = ".lockstep"

	// DefaultPullThreshold is the minimum number of seconds between
	// opportunistic fetches, doubling as the ledger cache TTL.
	DefaultPullThreshold = 60
)

// Config is the per-repository configuration loaded from .lockstep.yaml.
type Config struct {
	StoreURL          string            `mapstructure:"store_url" yaml:"store_url"`
	StoreHeaders      map[string]string `mapstructure:"store_headers" yaml:"store_headers,omitempty"`
	PullThreshold     int               `mapstructure:"pull_threshold" yaml:"pull_threshold"`
	TrackedExtensions []string          `mapstructure:"tracked_extensions" yaml:"tracked_extensions,omitempty"`
	TrackBinaries     bool              `mapstructure:"track_binaries" yaml:"track_binaries"`
	TrackUncommitted  bool              `mapstructure:"track_uncommitted" yaml:"track_uncommitted"`
	ModifyPermissions bool              `mapstructure:"modify_permissions" yaml:"modify_permissions"`
}

// LoadConfig reads .lockstep.yaml from the repository toplevel. A
// missing file means the repository was never set up.
func LoadConfig(toplevel string) (Config, error) {
	path := filepath.Join(toplevel, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.NewRepositoryError("repository is not set up", errors.ErrRepositoryNotSetup).
				WithPath(toplevel)
		}
		return Config{}, errors.Wrap(err, "reading repository configuration")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("pull_threshold", DefaultPullThreshold)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "reading repository configuration")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding repository configuration")
	}
	if cfg.StoreURL == "" {
		return Config{}, errors.NewValidationError("store_url is not configured").
			WithField("store_url").
			WithCause(errors.ErrInvalidStoreConfig)
	}
	if cfg.PullThreshold <= 0 {
		cfg.PullThreshold = DefaultPullThreshold
	}
	return cfg, nil
}

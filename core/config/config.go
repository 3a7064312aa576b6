package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"orgunit-sync/core/database"
	"orgunit-sync/core/logger"
	"orgunit-sync/core/server"
	"orgunit-sync/core/storage"
	"orgunit-sync/feature/orgunit/snapshot"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration, one section per concern.
type Config struct {
	Server server.Config `mapstructure:"server"`
	// Storage backs s3:// snapshot references.
	Storage  storage.Config  `mapstructure:"storage"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Snapshot snapshot.Config `mapstructure:"snapshot"`
}

// LoadConfig reads dir/.env when present, then the process environment.
// Keys map to env names by upper-casing and replacing dots with
// underscores: snapshot.default_path is SNAPSHOT_DEFAULT_PATH.
func LoadConfig(dir string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Overload(envFile(dir))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverMySQL, database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Snapshot.Dir) == "" {
		return fmt.Errorf("snapshot.dir must not be empty")
	}
	return nil
}

func envFile(dir string) string {
	if dir == "" || dir == "." {
		return ".env"
	}
	return filepath.Join(dir, ".env")
}

// registerDefaults walks t and sets every mapstructure key to its default
// tag. Keys without a default are registered empty so AutomaticEnv sees them.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("mapstructure")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, name)
			continue
		}
		v.SetDefault(name, field.Tag.Get("default"))
	}
}

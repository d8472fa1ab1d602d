// Package config loads the lazyframes application configuration.
//
// Values are taken, from lowest to highest priority, from built-in defaults, an optional
// dotenv file, LAZYFRAMES_* environment variables, and explicitly set command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "LAZYFRAMES"

// DefaultEnvFile is the dotenv file Load reads when it exists.
const DefaultEnvFile = ".env"

const (
	AdapterPGX  = "pgx"
	AdapterSQL  = "sql"
	AdapterSQLX = "sqlx"
)

const (
	keyDSN              = "dsn"
	keyReplicaDSN       = "replica_dsn"
	keyAdapter          = "adapter"
	keyVersionsTable    = "versions_table"
	keyRowsTable        = "rows_table"
	keyMaxConns         = "max_conns"
	keyMinConns         = "min_conns"
	keyBatchConcurrency = "batch_concurrency"
)

var (
	ErrLoadingConfigFailed = errors.New("loading config failed")
	ErrMissingDSN          = errors.New("no database DSN configured")
	ErrInvalidAdapter      = errors.New("invalid database adapter")
	ErrInvalidPoolSize     = errors.New("invalid connection pool size")
)

// Config is the application configuration of the lazyframes CLI.
type Config struct {
	DSN              string `mapstructure:"dsn"`
	ReplicaDSN       string `mapstructure:"replica_dsn"`
	Adapter          string `mapstructure:"adapter"`
	VersionsTable    string `mapstructure:"versions_table"`
	RowsTable        string `mapstructure:"rows_table"`
	MaxConns         int32  `mapstructure:"max_conns"`
	MinConns         int32  `mapstructure:"min_conns"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
}

// Load reads the configuration. envFile may be empty or point to a file that does not exist.
// Flags in flags whose names match a config key (with "-" instead of "_") override all other
// sources when they were set on the command line. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := readEnvFile(v, envFile); err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := bindFlags(v, flags); err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values no database adapter can work with.
func (c Config) Validate() error {
	if c.DSN == "" {
		return ErrMissingDSN
	}

	if !slices.Contains([]string{AdapterPGX, AdapterSQL, AdapterSQLX}, c.Adapter) {
		return errors.Join(ErrInvalidAdapter, fmt.Errorf("%q is not one of pgx, sql, sqlx", c.Adapter))
	}

	if c.MaxConns < 1 || c.MinConns < 0 || c.MinConns > c.MaxConns {
		return errors.Join(ErrInvalidPoolSize, fmt.Errorf("min %d, max %d", c.MinConns, c.MaxConns))
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyDSN, "")
	v.SetDefault(keyReplicaDSN, "")
	v.SetDefault(keyAdapter, AdapterPGX)
	v.SetDefault(keyVersionsTable, "symbol_versions")
	v.SetDefault(keyRowsTable, "symbol_rows")
	v.SetDefault(keyMaxConns, 10)
	v.SetDefault(keyMinConns, 1)
	v.SetDefault(keyBatchConcurrency, 4)
}

// readEnvFile copies the LAZYFRAMES_* entries of a dotenv file into v, above the defaults
// and below the environment.
func readEnvFile(v *viper.Viper, envFile string) error {
	if envFile == "" {
		return nil
	}

	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	fileV := viper.New()
	fileV.SetConfigFile(envFile)
	fileV.SetConfigType("env")

	if err := fileV.ReadInConfig(); err != nil {
		return err
	}

	prefix := strings.ToLower(EnvPrefix) + "_"

	for _, key := range fileV.AllKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		v.SetDefault(strings.TrimPrefix(key, prefix), fileV.Get(key))
	}

	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	for _, key := range []string{keyDSN, keyReplicaDSN, keyAdapter, keyVersionsTable, keyRowsTable, keyBatchConcurrency} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}

		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}

	return nil
}

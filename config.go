package authclient

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/viper"

	"github.com/goliatone/go-auth-client/store"
)

// EnvPrefix prefixes every environment variable read by LoadConfig, e.g.
// AUTHCLIENT_ENDPOINT or AUTHCLIENT_STORE_DRIVER.
const EnvPrefix = "AUTHCLIENT"

// Store drivers understood by Open.
const (
	StoreDriverMemory = "memory"
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
)

// Config holds the client settings.
type Config struct {
	Endpoint          string        `mapstructure:"endpoint" json:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout" json:"timeout"`
	PermittedRoles    []string      `mapstructure:"permitted_roles" json:"permitted_roles"`
	ClearUnauthorized bool          `mapstructure:"clear_unauthorized" json:"clear_unauthorized"`
	Store             StoreConfig   `mapstructure:"store" json:"store"`
	Verify            VerifyConfig  `mapstructure:"verify" json:"verify"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the credential file for the file driver and the database file
	// for the sqlite driver. Empty selects a default under the user data dir.
	Path string `mapstructure:"path" json:"path"`
	Key  string `mapstructure:"key" json:"key"`
}

// VerifyConfig enables signature verification of credentials. At most one
// of Secret and JWKSURL may be set.
type VerifyConfig struct {
	Secret  string `mapstructure:"secret" json:"-"`
	JWKSURL string `mapstructure:"jwks_url" json:"jwks_url"`
}

// Enabled reports whether credentials are verified.
func (v VerifyConfig) Enabled() bool {
	return v.Secret != "" || v.JWKSURL != ""
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Endpoint:       "http://localhost:9999",
		Timeout:        30 * time.Second,
		PermittedRoles: []string{RoleAdmin.String(), RoleManager.String()},
		Store: StoreConfig{
			Driver: StoreDriverFile,
			Key:    store.DefaultKey,
		},
	}
}

// LoadConfig reads path, when given, over DefaultConfig and then applies
// AUTHCLIENT_* environment variables. The result is validated.
func LoadConfig(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("permitted_roles", def.PermittedRoles)
	v.SetDefault("clear_unauthorized", def.ClearUnauthorized)
	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.key", def.Store.Key)
	v.SetDefault("verify.secret", "")
	v.SetDefault("verify.jwks_url", "")

	return v
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.By(positiveDuration)),
		validation.Field(&c.PermittedRoles, validation.Required),
		validation.Field(&c.Store),
		validation.Field(&c.Verify),
	)
}

// Validate will run validation rules
func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver,
			validation.Required,
			validation.In(StoreDriverMemory, StoreDriverFile, StoreDriverSQLite),
		),
		validation.Field(&s.Key, validation.Required),
	)
}

// Validate will run validation rules
func (v VerifyConfig) Validate() error {
	if v.Secret != "" && v.JWKSURL != "" {
		return errors.New("secret and jwks_url are mutually exclusive")
	}
	return validation.ValidateStruct(&v,
		validation.Field(&v.JWKSURL, is.URL),
	)
}

func positiveDuration(value any) error {
	d, _ := value.(time.Duration)
	if d <= 0 {
		return errors.New("must be a positive duration")
	}
	return nil
}

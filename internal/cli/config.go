package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/dayplan/internal/paths"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "DAYPLAN"
)

// Config keys.
const (
	keyBackend       = "backend"
	keyDataDir       = "data_dir"
	keyBusyTimeoutMS = "busy_timeout_ms"
	keyListenAddr    = "listen_addr"
	keyAuthSecret    = "auth.secret"
	keyAuthIssuer    = "auth.issuer"
	keyAuthAudience  = "auth.audience"
	keyAuthJWKSURL   = "auth.jwks_url"
	keyAuthTokenTTL  = "auth.token_ttl"
	keyRedisURL      = "redis.url"
	keyHideForeign   = "tasks.hide_foreign"
	keyLogLevel      = "log.level"
	keyLogFormat     = "log.format"
	keyMetrics       = "metrics.enabled"
	keyCORSOrigins   = "cors.allow_origins"
)

var defaults = map[string]any{
	keyBackend:       types.BackendSQLite,
	keyBusyTimeoutMS: 0,
	keyListenAddr:    ":8080",
	keyAuthTokenTTL:  "24h",
	keyHideForeign:   true,
	keyLogLevel:      "info",
	keyLogFormat:     "text",
	keyMetrics:       true,
}

// envKeys are the keys DAYPLAN_* variables may override. data_dir is left
// out because its environment variable ranks below config.yaml.
var envKeys = []string{
	keyBackend, keyBusyTimeoutMS, keyListenAddr,
	keyAuthSecret, keyAuthIssuer, keyAuthAudience, keyAuthJWKSURL, keyAuthTokenTTL,
	keyRedisURL, keyHideForeign, keyLogLevel, keyLogFormat, keyMetrics, keyCORSOrigins,
}

// Settings is the resolved runtime configuration.
type Settings struct {
	ConfigDir string
	Store     types.Config

	ListenAddr  string
	AllowOrigin []string

	AuthSecret   string
	AuthIssuer   string
	AuthAudience string
	AuthJWKSURL  string
	TokenTTL     time.Duration

	RedisURL string

	HideForeign    bool
	MetricsEnabled bool

	LogLevel  string
	LogFormat string
}

// loadSettings reads config.yaml from the resolved config directory and
// applies environment overrides and defaults. A missing config.yaml is not
// an error.
func loadSettings(f *rootFlags) (*Settings, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(keyDataDir), configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString(keyAuthTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", keyAuthTokenTTL, err)
	}

	s := &Settings{
		ConfigDir: configDir,
		Store: types.Config{
			Backend:       v.GetString(keyBackend),
			DataDir:       dataDir,
			BusyTimeoutMS: v.GetInt(keyBusyTimeoutMS),
		},
		ListenAddr:     v.GetString(keyListenAddr),
		AllowOrigin:    v.GetStringSlice(keyCORSOrigins),
		AuthSecret:     v.GetString(keyAuthSecret),
		AuthIssuer:     v.GetString(keyAuthIssuer),
		AuthAudience:   v.GetString(keyAuthAudience),
		AuthJWKSURL:    v.GetString(keyAuthJWKSURL),
		TokenTTL:       ttl,
		RedisURL:       v.GetString(keyRedisURL),
		HideForeign:    v.GetBool(keyHideForeign),
		MetricsEnabled: v.GetBool(keyMetrics),
		LogLevel:       v.GetString(keyLogLevel),
		LogFormat:      v.GetString(keyLogFormat),
	}
	if err := s.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return s, nil
}

// newLogger builds the process logger from settings.
func newLogger(s *Settings) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(os.Stderr)

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", keyLogLevel, err)
	}
	logger.SetLevel(level)

	switch s.LogFormat {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown %s %q", keyLogFormat, s.LogFormat)
	}
	return logger, nil
}

func configPath(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}

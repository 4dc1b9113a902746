package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dayplan/internal/paths"
	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

// configFile is the structure written to a fresh config.yaml.
type configFile struct {
	Backend    string        `yaml:"backend"`
	DataDir    string        `yaml:"data_dir,omitempty"`
	ListenAddr string        `yaml:"listen_addr"`
	Auth       authSection   `yaml:"auth"`
	Redis      redisSection  `yaml:"redis"`
	Tasks      tasksSection  `yaml:"tasks"`
	Log        logSection    `yaml:"log"`
	Metrics    metricSection `yaml:"metrics"`
}

type authSection struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`
	JWKSURL  string `yaml:"jwks_url,omitempty"`
	TokenTTL string `yaml:"token_ttl"`
}

type redisSection struct {
	URL string `yaml:"url"`
}

type tasksSection struct {
	HideForeign bool `yaml:"hide_foreign"`
}

type logSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type metricSection struct {
	Enabled bool `yaml:"enabled"`
}

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize dayplan configuration and storage",
		Long:  "Create the configuration directory and config.yaml if missing, then create the task database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := initConfigDir(f.configDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			written, err := writeConfigIfMissing(configPath(configDir), f.dataDir)
			if err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			resolved := *f
			resolved.configDir = configDir
			s, err := loadSettings(&resolved)
			if err != nil {
				return err
			}

			backend := sqlite.NewBackend()
			if err := backend.Attach(s.Store); err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalizing storage: %w", err)
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", configPath(s.ConfigDir))
			}
			fmt.Fprintf(out, "Task database ready in %s\n", s.Store.DataDir)
			return nil
		},
	}
}

// initConfigDir is where init writes config.yaml: the flag or
// DAYPLAN_CONFIG_DIR when given, otherwise ./.dayplan.
func initConfigDir(flag string) (string, error) {
	if flag == "" && os.Getenv(paths.EnvConfigDir) == "" {
		flag = paths.LocalConfigDirName
	}
	return paths.ResolveConfigDir(flag)
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone and reported as not written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if dataDir != "" {
		if dataDir, err = filepath.Abs(dataDir); err != nil {
			return false, err
		}
	}

	cfg := configFile{
		Backend:    types.BackendSQLite,
		DataDir:    dataDir,
		ListenAddr: defaults[keyListenAddr].(string),
		Auth:       authSection{TokenTTL: defaults[keyAuthTokenTTL].(string)},
		Tasks:      tasksSection{HideForeign: true},
		Log: logSection{
			Level:  defaults[keyLogLevel].(string),
			Format: defaults[keyLogFormat].(string),
		},
		Metrics: metricSection{Enabled: true},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, err
	}
	return true, nil
}

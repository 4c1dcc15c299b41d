// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"acp-cli/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "acp"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"

	// DefaultLocalRoot is the project-local install root.
	DefaultLocalRoot = "agent"
	// ManifestFileName is the manifest file name inside an install root.
	ManifestFileName = "manifest.yaml"
)

// Config holds the resolved acp configuration.
type Config struct {
	// LocalRoot is the project-local install root, relative to the working
	// directory unless absolute.
	LocalRoot string

	// GlobalRoot is the user-global install root.
	GlobalRoot string

	// Search holds remote search settings.
	Search SearchConfig

	// UI holds output settings.
	UI UIConfig
}

// SearchConfig configures the remote search pass-through.
type SearchConfig struct {
	// BaseURL is the search API endpoint.
	BaseURL string
	// Limit is the default maximum number of results.
	Limit int
}

// UIConfig configures CLI output.
type UIConfig struct {
	// Verbose enables verbose output by default.
	Verbose bool
}

// ConfigDir returns the acp configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application
// Support, and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfig returns the built-in defaults. GlobalRoot is resolved from
// the platform config dir; an empty GlobalRoot means the home directory
// could not be determined.
func DefaultConfig() *Config {
	cfg := &Config{
		LocalRoot: DefaultLocalRoot,
		Search: SearchConfig{
			BaseURL: "https://api.github.com",
			Limit:   20,
		},
	}
	if dir, err := ConfigDir(); err == nil {
		cfg.GlobalRoot = filepath.Join(dir, DefaultLocalRoot)
	}
	return cfg
}

// Load reads configuration from the optional config file layered over the
// defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("install.local_root", defaults.LocalRoot)
	v.SetDefault("install.global_root", defaults.GlobalRoot)
	v.SetDefault("search.base_url", defaults.Search.BaseURL)
	v.SetDefault("search.limit", defaults.Search.Limit)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	if configFilePathOverride != "" {
		v.SetConfigFile(configFilePathOverride)
		if err := v.ReadInConfig(); err != nil {
			return defaults, issue.NewErrorContext().
				WithKind(issue.KindParse).
				WithOperation("load configuration").
				WithResource(configFilePathOverride).
				WithSuggestion("Verify the file path is correct").
				Wrap(err).
				BuildError()
		}
	} else if dir, err := ConfigDir(); err == nil {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return defaults, issue.NewErrorContext().
					WithKind(issue.KindParse).
					WithOperation("load configuration").
					WithResource(filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)).
					WithSuggestion("Fix or remove the config file to use defaults").
					Wrap(err).
					BuildError()
			}
		}
	}

	return &Config{
		LocalRoot: v.GetString("install.local_root"),
		GlobalRoot: v.GetString("install.global_root"),
		Search: SearchConfig{
			BaseURL: v.GetString("search.base_url"),
			Limit:   v.GetInt("search.limit"),
		},
		UI: UIConfig{
			Verbose: v.GetBool("ui.verbose"),
		},
	}, nil
}

// Root returns the install root for the given scope: GlobalRoot when global
// is true, LocalRoot otherwise.
func (c *Config) Root(global bool) string {
	if global {
		return c.GlobalRoot
	}
	return c.LocalRoot
}

// ManifestPath returns the manifest path inside the selected install root.
func (c *Config) ManifestPath(global bool) string {
	return filepath.Join(c.Root(global), ManifestFileName)
}

// Package config loads patina's layered configuration: project settings
// from .patina/config.toml, oracle/weight tuning from .patina/oxidize.yaml,
// and environment overrides under the PATINA_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Should be called
// once at process startup, before any Get* call.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("toml")

	configFileSet := false

	// 1. Walk up from CWD looking for a project .patina/config.toml, so
	// subcommands work the same from any subdirectory of a repo.
	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".patina", "config.toml")
			if _, statErr := os.Stat(configPath); statErr == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory (~/.config/patina/config.toml).
	if !configFileSet {
		if configDir, cfgErr := os.UserConfigDir(); cfgErr == nil {
			configPath := filepath.Join(configDir, "patina", "config.toml")
			if _, statErr := os.Stat(configPath); statErr == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// 3. Home directory fallback (~/.patina/config.toml).
	if !configFileSet {
		if homeDir, homeErr := os.UserHomeDir(); homeErr == nil {
			configPath := filepath.Join(homeDir, ".patina", "config.toml")
			if _, statErr := os.Stat(configPath); statErr == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("PATINA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("db", "")
	v.SetDefault("actor", "")
	v.SetDefault("lock-timeout", "30s")

	v.SetDefault("rpc.request-timeout", "5s")
	v.SetDefault("rpc.max-conns", 8)

	v.SetDefault("query.deadline", "2s")
	v.SetDefault("query.rrf-k", 60)
	v.SetDefault("query.commit-expansion-limit", 20)

	v.SetDefault("ingest.watch-debounce", "2s")
	v.SetDefault("ingest.forge-rate", "750ms")
	v.SetDefault("ingest.max-retries", 3)

	v.SetDefault("embed.max-tokens", 512)
	v.SetDefault("embed.dim", 384)

	v.SetDefault("projection.min-training-pairs", 50)
	v.SetDefault("projection.dim", 128)

	v.SetDefault("mothership", "")

	if configFileSet {
		if readErr := v.ReadInConfig(); readErr != nil {
			return fmt.Errorf("error reading config file: %w", readErr)
		}
	}

	oxidizePath := oxidizeConfigPath()
	if oxidizePath != "" {
		if ov, loadErr := loadOxidizeWeights(oxidizePath); loadErr == nil {
			v.Set("oracle.weights", ov)
		}
	}

	return nil
}

// oxidizeConfigPath locates .patina/oxidize.yaml by the same walk-up rule
// used for config.toml, independent of whether config.toml was found.
func oxidizeConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		p := filepath.Join(dir, ".patina", "oxidize.yaml")
		if _, statErr := os.Stat(p); statErr == nil {
			return p
		}
	}
	return ""
}

// ConfigSource identifies where an effective configuration value came from.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
	SourceFlag       ConfigSource = "flag"
)

// GetValueSource returns the highest-priority source that set key.
func GetValueSource(key string) ConfigSource {
	if v == nil {
		return SourceDefault
	}
	envKey := "PATINA_" + strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), ".", "_"))
	if os.Getenv(envKey) != "" {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetFloat64(key string) float64 {
	if v == nil {
		return 0
	}
	return v.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// OracleWeights returns the configured per-intent oracle weight table, or
// nil if .patina/oxidize.yaml was not found — callers fall back to the
// Query Engine's built-in defaults in that case.
func OracleWeights() map[string]map[string]float64 {
	if v == nil {
		return nil
	}
	raw, ok := v.Get("oracle.weights").(map[string]map[string]float64)
	if !ok {
		return nil
	}
	return raw
}

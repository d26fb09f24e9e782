// Package config holds the viper configuration singleton for the node.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Should be called
// once at application startup, before any getter.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	// Config file precedence: project .anoma/config.yaml (walking up from
	// the working directory) > user config dir. Missing files are fine; the
	// defaults below apply.
	configFileSet := false
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".anoma", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "anoma", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// Environment variables take precedence over the config file:
	// ANOMA_DATA_DIR, ANOMA_LOG_LEVEL, ...
	v.SetEnvPrefix("ANOMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data-dir", ".anoma")
	v.SetDefault("backend", "sqlite")
	v.SetDefault("namespace", []string{})
	v.SetDefault("topic", "storage-events")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")
	v.SetDefault("tables.order", "storage_order")
	v.SetDefault("tables.qualified", "storage_qualified")
	v.SetDefault("tables.commitments", "storage_commitments")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// Viper exposes the singleton for watch hooks; it is nil before Initialize.
func Viper() *viper.Viper { return v }

// ConfigFileUsed returns the loaded config file path, if any.
func ConfigFileUsed() string { return v.ConfigFileUsed() }

// DataDir returns the node data directory.
func DataDir() string { return v.GetString("data-dir") }

// Backend returns the table backend name, "sqlite" or "memory".
func Backend() string { return v.GetString("backend") }

// Namespace returns the configured namespace elements.
func Namespace() []string { return v.GetStringSlice("namespace") }

// TopicName returns the publish topic name; empty disables publishing.
func TopicName() string { return v.GetString("topic") }

// LogLevel returns the slog level name.
func LogLevel() string { return v.GetString("log-level") }

// LogFile returns the rotated log file path; empty logs to stderr.
func LogFile() string { return v.GetString("log-file") }

// OrderTable returns the physical order table name.
func OrderTable() string { return v.GetString("tables.order") }

// QualifiedTable returns the physical qualified table name.
func QualifiedTable() string { return v.GetString("tables.qualified") }

// CommitmentsTable returns the physical commitments table name.
func CommitmentsTable() string { return v.GetString("tables.commitments") }

// Settings returns the effective configuration as a nested map (dotted keys
// such as tables.order become sub-maps), for display.
func Settings() map[string]any { return v.AllSettings() }

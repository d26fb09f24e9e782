package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
)

// manifestName is the file recorded in the data directory.
const manifestName = "node.toml"

// Manifest pins down what a data directory contains, so a later invocation
// opens it with the same table names and namespace it was created with.
type Manifest struct {
	EngineVersion string         `toml:"engine_version"`
	Backend       string         `toml:"backend"`
	Namespace     []string       `toml:"namespace"`
	Tables        ManifestTables `toml:"tables"`
}

// ManifestTables names the three physical tables.
type ManifestTables struct {
	Order       string `toml:"order"`
	Qualified   string `toml:"qualified"`
	Commitments string `toml:"commitments"`
}

// LoadManifest reads the manifest from dir. A missing manifest returns
// (nil, nil): the directory has not been initialized yet.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Write stores the manifest in dir, creating the directory if needed.
func (m *Manifest) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// CheckVersion rejects a data directory written by a different major
// engine version.
func (m *Manifest) CheckVersion(binaryVersion string) error {
	recorded := "v" + m.EngineVersion
	current := "v" + binaryVersion
	if !semver.IsValid(recorded) || !semver.IsValid(current) {
		return fmt.Errorf("invalid engine version %q vs %q", m.EngineVersion, binaryVersion)
	}
	if semver.Major(recorded) != semver.Major(current) {
		return fmt.Errorf("data dir written by engine %s, binary is %s", m.EngineVersion, binaryVersion)
	}
	return nil
}

package resource

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/jward/candyc/internal/ids"
)

// Manifest models a package's candyspec.yml.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
	// Dependencies maps package ids to version constraints. An empty
	// constraint accepts any version.
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}

// ParseManifest decodes and validates candyspec.yml contents. Unknown keys
// are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Version = canonicalVersion(m.Version)
	if len(m.Dependencies) == 0 {
		return
	}
	deps := make(map[string]string, len(m.Dependencies))
	for name, version := range m.Dependencies {
		deps[strings.TrimSpace(name)] = canonicalVersion(version)
	}
	m.Dependencies = deps
}

// canonicalVersion accepts versions with or without the leading "v".
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// Validate checks the package name and every version.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: missing name")
	}
	if m.Version != "" && !semver.IsValid(m.Version) {
		return fmt.Errorf("manifest: %s: invalid version %q", m.Name, m.Version)
	}
	for name, version := range m.Dependencies {
		if name == "" {
			return fmt.Errorf("manifest: %s: dependency without a name", m.Name)
		}
		if name == m.Name {
			return fmt.Errorf("manifest: %s: package depends on itself", m.Name)
		}
		if version != "" && !semver.IsValid(version) {
			return fmt.Errorf("manifest: %s: dependency %s: invalid version %q", m.Name, name, version)
		}
	}
	return nil
}

// DependencyIds returns the declared dependencies sorted by id.
func (m *Manifest) DependencyIds() []ids.PackageId {
	out := make([]ids.PackageId, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		out = append(out, ids.PackageId(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Encode renders the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("manifest: marshal %s: %w", m.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("manifest: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

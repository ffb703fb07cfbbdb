package features

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

//go:embed features.yaml
var defaultRegistryYAML []byte

// Definition describes a known feature flag.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type registryFile struct {
	Features []Definition `yaml:"features"`
}

// Registry is the set of feature flags the admin surfaces manage.
type Registry struct {
	defs   []Definition
	byName map[string]Definition
}

// NewRegistry validates defs and builds a registry sorted by name.
func NewRegistry(defs ...Definition) (*Registry, error) {
	reg := &Registry{byName: make(map[string]Definition, len(defs))}
	for i, def := range defs {
		def.Name = strings.TrimSpace(def.Name)
		def.Description = strings.TrimSpace(def.Description)
		if def.Name == "" {
			return nil, apperrors.New(apperrors.CodeRegistryInvalid, fmt.Sprintf("feature %d has no name", i))
		}
		if strings.ContainsAny(def.Name, "[] \t") {
			return nil, apperrors.WithMetadata(apperrors.CodeRegistryInvalid,
				fmt.Sprintf("feature name %q contains brackets or whitespace", def.Name),
				map[string]string{"Name": def.Name})
		}
		if _, dup := reg.byName[def.Name]; dup {
			return nil, apperrors.WithMetadata(apperrors.CodeRegistryInvalid,
				fmt.Sprintf("feature %q is defined twice", def.Name),
				map[string]string{"Name": def.Name})
		}
		reg.byName[def.Name] = def
		reg.defs = append(reg.defs, def)
	}
	sort.Slice(reg.defs, func(i, j int) bool { return reg.defs[i].Name < reg.defs[j].Name })
	return reg, nil
}

// LoadRegistry reads a YAML registry document.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var file registryFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode feature registry: %w", err)
	}
	return NewRegistry(file.Features...)
}

// LoadRegistryFile reads a YAML registry from path.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature registry: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

// DefaultRegistry returns the registry embedded in the binary.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(bytes.NewReader(defaultRegistryYAML))
}

// Names returns the feature names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.defs))
	for i, def := range r.defs {
		names[i] = def.Name
	}
	return names
}

// Definitions returns a copy of the definitions in sorted order.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	return append([]Definition(nil), r.defs...)
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.byName[name]
	return def, ok
}

// Description returns the description for name, or "" when unknown.
func (r *Registry) Description(name string) string {
	def, _ := r.Lookup(name)
	return def.Description
}

// Len returns the number of known features.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

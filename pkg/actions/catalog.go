package actions

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrUnknownHandler = errors.New("unknown action handler")

// Catalog is an action catalog file: extra descriptors and whether the stock
// catalog is registered ahead of them
type Catalog struct {
	IncludeDefaults bool          `koanf:"include_defaults"`
	Actions         []*Descriptor `koanf:"actions"`
}

// LoadCatalog reads a catalog from a TOML or YAML file
func LoadCatalog(path string) (*Catalog, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := k.Unmarshal("", &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog %s: %w", path, err)
	}
	if !k.Exists("include_defaults") {
		cat.IncludeDefaults = true
	}
	return &cat, nil
}

// Descriptors returns the full descriptor list the catalog describes
func (c *Catalog) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.Actions))
	if c.IncludeDefaults {
		out = append(out, DefaultDescriptors()...)
	}
	return append(out, c.Actions...)
}

// Build creates a registry from the catalog. Every descriptor must name a
// handler present in handlers.
func (c *Catalog) Build(handlers HandlerTable, opts ...Option) (*Registry, error) {
	descriptors := c.Descriptors()
	for _, d := range descriptors {
		if _, ok := handlers[d.Handler]; !ok {
			return nil, fmt.Errorf("%w: %s uses %q", ErrUnknownHandler, d.ID, d.Handler)
		}
	}
	r := NewRegistry(handlers, opts...)
	if err := r.RegisterAll(descriptors); err != nil {
		return nil, err
	}
	return r, nil
}

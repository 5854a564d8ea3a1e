package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for graph files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported graph format")

// Format is the encoding of a graph snapshot
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadGraph reads a graph snapshot from a JSON or YAML file
func LoadGraph(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graph file: %w", err)
	}
	defer f.Close()

	g, err := DecodeGraph(f, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return g, nil
}

// DecodeGraph decodes a graph snapshot and indexes its nodes
func DecodeGraph(r io.Reader, format Format) (*Graph, error) {
	var g Graph
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if g.Nodes == nil {
		g.Nodes = make([]*Node, 0)
	}
	if g.Edges == nil {
		g.Edges = make([]*Edge, 0)
	}
	for i, n := range g.Nodes {
		if n == nil {
			return nil, fmt.Errorf("node %d is empty", i)
		}
	}
	for i, e := range g.Edges {
		if e == nil {
			return nil, fmt.Errorf("edge %d is empty", i)
		}
		if e.Status == "" {
			e.Status = EdgeActive
		}
	}
	g.Reindex()
	return &g, nil
}

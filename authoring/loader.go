package authoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Lint111/animgraph/graph"
)

// Decode parses a graph document from raw bytes. The format is chosen by the
// extension of name: .json, .yaml, or .yml.
func Decode(name string, data []byte) (*GraphDocument, error) {
	var doc GraphDocument
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("authoring: decode %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("authoring: decode %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("authoring: decode %s: unsupported extension %q", name, filepath.Ext(name))
	}
	return &doc, nil
}

// Load reads the document at path, decodes it by extension, and bakes it.
func Load(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authoring: load %s: %w", path, err)
	}
	doc, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

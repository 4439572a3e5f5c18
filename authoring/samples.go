package authoring

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/Lint111/animgraph/graph"
)

//go:embed samples/*.json samples/*.yaml
var embeddedSamples embed.FS

// SampleNames lists the embedded sample documents bundled with the package.
func SampleNames() []string {
	entries, err := fs.ReadDir(embeddedSamples, "samples")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// LoadSample decodes and bakes the named embedded sample document.
func LoadSample(name string) (*graph.Graph, error) {
	data, err := embeddedSamples.ReadFile("samples/" + name)
	if err != nil {
		return nil, fmt.Errorf("authoring: sample %s: %w", name, err)
	}
	doc, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// SampleLibrary bakes every embedded sample into a fresh registry.
func SampleLibrary() (*graph.Library, error) {
	lib := graph.NewLibrary()
	for _, name := range SampleNames() {
		g, err := LoadSample(name)
		if err != nil {
			return nil, err
		}
		if _, err := lib.Register(g); err != nil {
			return nil, fmt.Errorf("authoring: sample %s: %w", name, err)
		}
	}
	return lib, nil
}

// MustSampleLibrary panics when a bundled sample fails to bake, which can
// only happen if the embedded documents are edited inconsistently.
func MustSampleLibrary() *graph.Library {
	lib, err := SampleLibrary()
	if err != nil {
		panic(err)
	}
	return lib
}

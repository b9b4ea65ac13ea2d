package config

import (
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/crd-syncer/pkg/errors"
)

// A Mapping binds a local JSON file to a named custom resource. The mapping
// table is loaded once at startup and is immutable for the lifetime of the
// process.
type Mapping struct {
	// FilePath is the path of the local JSON file. It's unique within the
	// mapping table.
	FilePath string `json:"file"`

	// Plural is the collection name used to address the resource type, e.g.
	// "services".
	Plural string `json:"plural"`

	// Name is the name of the resource instance to sync against.
	Name string `json:"name"`

	// Kind is the kind written when the resource has to be created.
	Kind string `json:"kind,omitempty"`
}

// ParseFileMap parses the FILE_MAP environment variable into the mapping
// table, preserving the order of the entries. Each line has the form
// `/path/to/file.json=plural:name[:kind]`. Blank lines and lines without an
// `=` are ignored. `kind` falls back to defaultKind when omitted.
func ParseFileMap(raw, defaultKind string) ([]Mapping, error) {
	var mappings []Mapping
	seen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") {
			continue
		}

		pathPart, resourcePart := splitOnce(line, "=")
		parts := strings.Split(resourcePart, ":")
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, errors.NewFriendlyError(
				"Malformed FILE_MAP entry %q. "+
					"Expected the format `/path/to/file.json=plural:name[:kind]`.", line)
		}

		kind := defaultKind
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			kind = strings.TrimSpace(parts[2])
		}

		// Expand ~'s so that mappings can reference the user's home
		// directory during development.
		path, err := homedir.Expand(strings.TrimSpace(pathPart))
		if err != nil {
			return nil, errors.WithContext(err, "expand homedir")
		}

		if seen[path] {
			return nil, errors.NewFriendlyError(
				"The file %q is mapped more than once. "+
					"Each local file can only sync against a single resource.", path)
		}
		seen[path] = true

		mappings = append(mappings, Mapping{
			FilePath: path,
			Plural:   strings.TrimSpace(parts[0]),
			Name:     strings.TrimSpace(parts[1]),
			Kind:     kind,
		})
	}
	return mappings, nil
}

func splitOnce(s, sep string) (string, string) {
	parts := strings.SplitN(s, sep, 2)
	return parts[0], parts[1]
}

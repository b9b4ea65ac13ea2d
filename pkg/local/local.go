// Package local reads and writes the file side of each mapping.
package local

import (
	"encoding/json"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/crd-syncer/pkg/document"
	"github.com/sidkik/crd-syncer/pkg/errors"
)

// Client accesses the local JSON documents through an afero filesystem so
// that tests can run against an in-memory one.
type Client struct {
	fs afero.Fs
}

// NewClient creates a Client backed by the given filesystem.
func NewClient(fs afero.Fs) *Client {
	return &Client{fs: fs}
}

// Read returns the document stored at path. A missing or malformed file is
// treated the same as an empty document rather than an error so that a bad
// local edit never stops the sync loop. Non-object top-level values are
// wrapped so they can flow through the rest of the syncer.
func (c *Client) Read(path string) document.Document {
	contents, err := afero.ReadFile(c.fs, path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug(
			"Failed to read local file. Treating it as empty.")
		return document.Document{}
	}

	doc, err := document.Parse(contents)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug(
			"Failed to parse local file. Treating it as empty.")
		return document.Document{}
	}
	return doc
}

// Write replaces the file at path with the pretty-printed document, creating
// parent directories as needed. Wrapped non-object values are unwrapped
// before writing so that Write followed by Read reproduces the original
// content exactly.
func (c *Client) Write(path string, doc document.Document) error {
	if err := c.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "create parent directory")
	}

	contents, err := json.MarshalIndent(doc.Unwrap(), "", "  ")
	if err != nil {
		return errors.WithContext(err, "marshal document")
	}

	if err := afero.WriteFile(c.fs, path, contents, 0644); err != nil {
		return errors.WithContext(err, "write file")
	}
	return nil
}

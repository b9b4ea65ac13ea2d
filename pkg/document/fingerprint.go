package document

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
)

// Fingerprint returns a stable digest of the document's contents.
// encoding/json serializes map keys in sorted order at every nesting level,
// so two structurally equal documents produce the same fingerprint no matter
// how their keys were ordered when they were read. Equal fingerprints are
// treated as semantic equality everywhere in the syncer.
func Fingerprint(doc Document) string {
	// Documents only ever hold values produced by JSON decoding, so
	// re-encoding them can't fail.
	canonical, _ := json.Marshal(doc)

	digest := sha512.Sum512(canonical)
	return base64.StdEncoding.EncodeToString(digest[:])
}

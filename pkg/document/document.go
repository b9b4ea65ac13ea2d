package document

import (
	"bytes"
	"encoding/json"
)

// A Document is an opaque JSON object tree. The syncer never interprets its
// fields beyond checking whether the document is empty, so any valid JSON
// content can be mirrored without the syncer knowing its schema.
type Document map[string]interface{}

// rawKey is the reserved key used to store non-object top-level JSON values
// (strings, numbers, arrays, ...) inside a Document. Wrap and Unwrap must
// remain exact inverses so that writing a wrapped value back to disk and
// reading it again reproduces the original content.
const rawKey = "raw"

// Wrap converts an arbitrary decoded JSON value into a Document.
func Wrap(val interface{}) Document {
	if val == nil {
		return Document{}
	}
	if obj, ok := val.(map[string]interface{}); ok {
		return Document(obj)
	}
	return Document{rawKey: val}
}

// Unwrap returns the top-level JSON value that the document represents,
// undoing Wrap for documents that hold a single wrapped value.
func (doc Document) Unwrap() interface{} {
	if len(doc) == 1 {
		if raw, ok := doc[rawKey]; ok {
			return raw
		}
	}
	return map[string]interface{}(doc)
}

// Parse decodes raw JSON into a Document. Integers are decoded as int64 and
// other numbers as float64, matching how the API machinery represents
// unstructured payloads, so a value never changes shape (or fingerprint)
// depending on which side of a mapping it was read from. Plain
// json.Unmarshal would decode every number as float64 and silently degrade
// integers beyond 2^53.
func Parse(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var val interface{}
	if err := decoder.Decode(&val); err != nil {
		return nil, err
	}
	return Wrap(normalizeNumbers(val)), nil
}

func normalizeNumbers(val interface{}) interface{} {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]interface{}:
		for key, elem := range v {
			v[key] = normalizeNumbers(elem)
		}
		return v
	case []interface{}:
		for i, elem := range v {
			v[i] = normalizeNumbers(elem)
		}
		return v
	default:
		return val
	}
}

// Empty returns whether the document has zero keys. An existing remote
// resource with an empty payload is distinct from an absent one, and the
// guard policy treats the two differently.
func (doc Document) Empty() bool {
	return len(doc) == 0
}

package local

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/crd-syncer/pkg/document"
)

func parseDoc(t *testing.T, raw string) document.Document {
	doc, err := document.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestReadDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		contents *string
	}{
		{name: "MissingFile", contents: nil},
		{name: "MalformedJSON", contents: strPtr(`{"replicas": `)},
		{name: "EmptyFile", contents: strPtr("")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if test.contents != nil {
				require.NoError(t, afero.WriteFile(
					fs, "/data/file.json", []byte(*test.contents), 0644))
			}

			doc := NewClient(fs).Read("/data/file.json")
			assert.Equal(t, document.Document{}, doc)
		})
	}
}

func TestReadWrapsNonObjectValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/file.json", []byte(`[1, 2, 3]`), 0644))

	doc := NewClient(fs).Read("/data/file.json")
	assert.Equal(t, parseDoc(t, `{"raw": [1, 2, 3]}`), doc)
}

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "Object", doc: `{"replicas": 3, "nested": {"a": [1, 2]}}`},
		{name: "WrappedScalar", doc: `"hello"`},
		{name: "WrappedArray", doc: `[1, "two"]`},
		{name: "Empty", doc: `{}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			client := NewClient(fs)

			exp := parseDoc(t, test.doc)
			require.NoError(t, client.Write("/deeply/nested/dir/file.json", exp))
			assert.Equal(t, exp, client.Read("/deeply/nested/dir/file.json"))
		})
	}
}

func TestWriteReadPreservesLargeIntegers(t *testing.T) {
	// 9007199254740993 (2^53 + 1) is not representable as a float64; a
	// lossy decode would corrupt the value and the corrupted fingerprint
	// would then trigger a spurious push on the next pass.
	fs := afero.NewMemMapFs()
	client := NewClient(fs)

	exp := document.Document{"serial": int64(9007199254740993)}
	require.NoError(t, client.Write("/data/file.json", exp))
	assert.Equal(t, exp, client.Read("/data/file.json"))

	contents, err := afero.ReadFile(fs, "/data/file.json")
	require.NoError(t, err)
	assert.Contains(t, string(contents), "9007199254740993")
}

func TestWritePrettyPrints(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := NewClient(fs)

	require.NoError(t, client.Write("/data/file.json", parseDoc(t, `{"b": 2, "a": 1}`)))

	contents, err := afero.ReadFile(fs, "/data/file.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", string(contents))
}

func TestWriteUnwrapsRawValues(t *testing.T) {
	// A wrapped scalar must be written back as the bare scalar, not as the
	// wrapper object.
	fs := afero.NewMemMapFs()
	client := NewClient(fs)

	require.NoError(t, client.Write("/data/file.json", parseDoc(t, `42`)))

	contents, err := afero.ReadFile(fs, "/data/file.json")
	require.NoError(t, err)
	assert.Equal(t, "42", string(contents))
}

func strPtr(s string) *string {
	return &s
}

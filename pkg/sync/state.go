package sync

import (
	"github.com/sidkik/crd-syncer/pkg/config"
)

// State holds the fingerprints that were last successfully synchronized for
// one mapping. An empty fingerprint is the "unknown" sentinel used until the
// side has been observed after startup. The fields track what was last
// applied, not what's currently on disk or in the cluster; the two only
// coincide once the loop has observed the side.
type State struct {
	LastLocal  string
	LastRemote string
}

// StateTable owns the per-mapping sync state for the lifetime of the
// process. It's only ever touched by the reconcile loop, one mapping at a
// time, so it needs no locking. The state is intentionally not persisted: a
// restart resets every mapping to unknown and the first pass resolves both
// sides through the ordinary precedence rules.
type StateTable map[string]State

// NewStateTable creates a table with every mapping in the unknown state.
func NewStateTable(mappings []config.Mapping) StateTable {
	table := StateTable{}
	for _, mapping := range mappings {
		table[mapping.FilePath] = State{}
	}
	return table
}

// Get returns the current state for the mapping.
func (table StateTable) Get(mapping config.Mapping) State {
	return table[mapping.FilePath]
}

// Commit records the state for the mapping after a successful decision.
func (table StateTable) Commit(mapping config.Mapping, state State) {
	table[mapping.FilePath] = state
}

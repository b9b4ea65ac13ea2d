package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Fingerprints standing in for document contents. The empty string is
// reserved for the "unknown" sentinel.
const (
	fpA = "fingerprint-a"
	fpB = "fingerprint-b"
	fpC = "fingerprint-c"
	// fpEmptyDoc is the fingerprint of the empty document.
	fpEmptyDoc = "fingerprint-empty"
)

var defaultPolicy = Policy{
	ProtectLocalOnAbsent:   true,
	SkipEmptyRemoteToLocal: true,
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		state  State
		obs    Observation
		exp    Decision
	}{
		{
			name: "FirstPassBothSidesAlreadyEqual",
			// The sentinels are retired even though nothing is written, so a
			// later one-sided edit is attributed to the right side.
			policy: defaultPolicy,
			state:  State{},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpA, RemoteExists: true},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "FirstPassSidesDisagreeLocalWins",
			policy: defaultPolicy,
			state:  State{},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpB, RemoteExists: true},
			exp:    Decision{Action: ActionLocalToRemote, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "InSyncNoChanges",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpA, RemoteExists: true},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "LocalChanged",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpB, RemoteFP: fpA, RemoteExists: true},
			exp:    Decision{Action: ActionLocalToRemote, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
		{
			name:   "RemoteChanged",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpB, RemoteExists: true},
			exp:    Decision{Action: ActionRemoteToLocal, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
		{
			name:   "BothChangedLocalWins",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpB, RemoteFP: fpC, RemoteExists: true},
			exp:    Decision{Action: ActionLocalToRemote, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
		{
			name:   "BothChangedToSameContent",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpB, RemoteFP: fpB, RemoteExists: true},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
		{
			name:   "AbsentProtectsEvenWhenLocalChanged",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpB, RemoteExists: false},
			exp:    Decision{Action: ActionProtectAbsent, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "AbsentWithoutProtectionRecreatesOnLocalChange",
			policy: Policy{ProtectLocalOnAbsent: false, SkipEmptyRemoteToLocal: true},
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpB, RemoteExists: false},
			exp:    Decision{Action: ActionLocalToRemote, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
		{
			name:   "AbsentWithoutProtectionNoLocalChange",
			policy: Policy{ProtectLocalOnAbsent: false, SkipEmptyRemoteToLocal: true},
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteExists: false},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "EmptyRemoteSkipped",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpEmptyDoc, RemoteExists: true, RemoteEmpty: true},
			exp:    Decision{Action: ActionSkipEmpty, Next: State{LastLocal: fpA, LastRemote: fpEmptyDoc}},
		},
		{
			name: "EmptyRemoteSkipOnlyOnce",
			// The skipped empty fingerprint was recorded, so the next tick
			// with the same empty payload is a no-op instead of another skip.
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpEmptyDoc},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpEmptyDoc, RemoteExists: true, RemoteEmpty: true},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpA, LastRemote: fpEmptyDoc}},
		},
		{
			name:   "EmptyRemoteAppliedWhenSkipDisabled",
			policy: Policy{ProtectLocalOnAbsent: true, SkipEmptyRemoteToLocal: false},
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpEmptyDoc, RemoteExists: true, RemoteEmpty: true},
			exp:    Decision{Action: ActionRemoteToLocal, Next: State{LastLocal: fpEmptyDoc, LastRemote: fpEmptyDoc}},
		},
		{
			name: "RecreationWithSameContentIsNoOp",
			// The remote was deleted and recreated with the content it had
			// before. LastRemote stayed frozen during the absence, so the
			// reappearance reads as no observable change.
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpA, RemoteExists: true},
			exp:    Decision{Action: ActionNone, Next: State{LastLocal: fpA, LastRemote: fpA}},
		},
		{
			name:   "RecreationWithNewContentIsPulled",
			policy: defaultPolicy,
			state:  State{LastLocal: fpA, LastRemote: fpA},
			obs:    Observation{LocalFP: fpA, RemoteFP: fpB, RemoteExists: true},
			exp:    Decision{Action: ActionRemoteToLocal, Next: State{LastLocal: fpB, LastRemote: fpB}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.policy.Decide(test.state, test.obs))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "local-to-remote", ActionLocalToRemote.String())
	assert.Equal(t, "remote-to-local", ActionRemoteToLocal.String())
	assert.Equal(t, "skip-empty", ActionSkipEmpty.String())
	assert.Equal(t, "protect-absent", ActionProtectAbsent.String())
}

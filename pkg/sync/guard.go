package sync

// Action is the single directional operation that the reconcile loop may
// perform for a mapping on one tick.
type Action int

const (
	// ActionNone means both sides are already in sync, or nothing observable
	// changed since the last pass.
	ActionNone Action = iota

	// ActionLocalToRemote pushes the local document to the cluster.
	ActionLocalToRemote

	// ActionRemoteToLocal writes the remote payload to the local file.
	ActionRemoteToLocal

	// ActionSkipEmpty records that the remote payload became empty without
	// overwriting the local file.
	ActionSkipEmpty

	// ActionProtectAbsent leaves both sides untouched because the remote
	// resource doesn't exist.
	ActionProtectAbsent
)

func (action Action) String() string {
	switch action {
	case ActionLocalToRemote:
		return "local-to-remote"
	case ActionRemoteToLocal:
		return "remote-to-local"
	case ActionSkipEmpty:
		return "skip-empty"
	case ActionProtectAbsent:
		return "protect-absent"
	default:
		return "none"
	}
}

// An Observation is what the reconcile loop saw for one mapping on the
// current tick. RemoteFP is empty when the resource doesn't exist, which can
// never collide with a real fingerprint.
type Observation struct {
	LocalFP      string
	RemoteFP     string
	RemoteExists bool
	RemoteEmpty  bool
}

// Policy holds the guard switches that prevent destructive overwrites.
type Policy struct {
	// ProtectLocalOnAbsent freezes a mapping entirely while its remote
	// resource doesn't exist. The resource is only recreated on a later pass
	// once it's visible again (or, with the flag off, as soon as the local
	// file changes).
	ProtectLocalOnAbsent bool

	// SkipEmptyRemoteToLocal keeps an empty remote payload from overwriting
	// the local file.
	SkipEmptyRemoteToLocal bool
}

// A Decision pairs the action to take with the state to commit once the
// action has succeeded. Callers that fail to perform the action must keep
// the old state so the same change is retried on the next tick.
type Decision struct {
	Action Action
	Next   State
}

// Decide evaluates the guard rules in strict precedence order. The ordering
// is the conflict tie-break: pushing local changes is considered before
// pulling remote ones, so when both sides changed in the same interval the
// local document wins and the remote edit is discarded on that tick.
func (p Policy) Decide(state State, obs Observation) Decision {
	// Rule 1: the remote resource doesn't exist. With protection on, nothing
	// moves in either direction. LastRemote stays frozen, so a later
	// recreation with identical content reads as "no observable change".
	if !obs.RemoteExists && p.ProtectLocalOnAbsent {
		return Decision{Action: ActionProtectAbsent, Next: state}
	}

	// Rule 2: the local file changed since we last synced it, and it
	// disagrees with the remote payload.
	if obs.LocalFP != state.LastLocal && obs.LocalFP != obs.RemoteFP {
		return Decision{
			Action: ActionLocalToRemote,
			Next:   State{LastLocal: obs.LocalFP, LastRemote: obs.LocalFP},
		}
	}

	// Rule 3: the remote payload changed since we last synced it, and it
	// disagrees with the local file.
	if obs.RemoteExists && obs.RemoteFP != state.LastRemote && obs.RemoteFP != obs.LocalFP {
		if p.SkipEmptyRemoteToLocal && obs.RemoteEmpty {
			// Record the empty fingerprint without touching the file so the
			// same empty payload isn't re-evaluated on every tick.
			return Decision{
				Action: ActionSkipEmpty,
				Next:   State{LastLocal: state.LastLocal, LastRemote: obs.RemoteFP},
			}
		}
		return Decision{
			Action: ActionRemoteToLocal,
			Next:   State{LastLocal: obs.RemoteFP, LastRemote: obs.RemoteFP},
		}
	}

	// Rule 4: nothing to do. The observed fingerprints still replace the
	// startup sentinels so that a later one-sided edit is attributed to the
	// side that actually changed; without this, the first remote edit after
	// an in-sync startup would be clobbered by the unchanged local file.
	// LastRemote stays frozen while the resource is absent.
	if obs.RemoteExists {
		return Decision{
			Action: ActionNone,
			Next:   State{LastLocal: obs.LocalFP, LastRemote: obs.RemoteFP},
		}
	}
	return Decision{Action: ActionNone, Next: state}
}

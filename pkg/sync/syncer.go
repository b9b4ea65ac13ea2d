package sync

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/crd-syncer/pkg/config"
	"github.com/sidkik/crd-syncer/pkg/document"
	"github.com/sidkik/crd-syncer/pkg/errors"
)

// LocalFiles reads and writes the file side of each mapping.
type LocalFiles interface {
	Read(path string) document.Document
	Write(path string, doc document.Document) error
}

// RemoteStore reads and writes the cluster side of each mapping.
type RemoteStore interface {
	Get(ctx context.Context, plural, name string) (document.Document, bool, error)
	Upsert(ctx context.Context, plural, name, kind string, doc document.Document) error
}

// Syncer drives the poll loop. It owns the state table exclusively and
// processes one mapping at a time, so a pass never needs locking and
// performs at most one directional write per mapping.
type Syncer struct {
	mappings []config.Mapping
	policy   Policy
	interval time.Duration
	table    StateTable
	files    LocalFiles

	// newStore is invoked at the start of every pass so that rotated
	// credentials or an invalidated client never require a restart.
	newStore func() (RemoteStore, error)

	clock clockwork.Clock
}

// New creates a Syncer for the given configuration. It fails fast when the
// mapping table is empty.
func New(cfg config.Config, files LocalFiles, newStore func() (RemoteStore, error)) (*Syncer, error) {
	if len(cfg.Mappings) == 0 {
		return nil, errors.New("no mappings configured")
	}

	return &Syncer{
		mappings: cfg.Mappings,
		policy: Policy{
			ProtectLocalOnAbsent:   cfg.ProtectLocalOnAbsent,
			SkipEmptyRemoteToLocal: cfg.SkipEmptyRemoteToLocal,
		},
		interval: cfg.SyncInterval,
		table:    NewStateTable(cfg.Mappings),
		files:    files,
		newStore: newStore,
		clock:    clockwork.NewRealClock(),
	}, nil
}

// Run polls until ctx is cancelled. An in-flight pass always runs to
// completion; cancellation is only honored during the interval sleep.
func (s *Syncer) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"mappings": len(s.mappings),
		"interval": s.interval,
	}).Info("Starting sync loop")

	for {
		store, err := s.newStore()
		if err != nil {
			log.WithError(err).Error(
				"Failed to connect to the cluster. Retrying on the next tick.")
		} else {
			s.RunOnce(ctx, store)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}
	}
}

// RunOnce performs one full pass over the mapping table in declaration
// order. A failing mapping is logged and skipped so that it never starves
// the others; its state is left untouched and the same change is retried on
// the next pass.
func (s *Syncer) RunOnce(ctx context.Context, store RemoteStore) {
	for _, mapping := range s.mappings {
		if err := s.syncMapping(ctx, store, mapping); err != nil {
			log.WithError(err).WithFields(mappingFields(mapping)).Error(
				"Failed to sync mapping. Retrying on the next tick.")
		}
	}
}

func (s *Syncer) syncMapping(ctx context.Context, store RemoteStore, mapping config.Mapping) error {
	localDoc := s.files.Read(mapping.FilePath)
	remoteDoc, remoteExists, err := store.Get(ctx, mapping.Plural, mapping.Name)
	if err != nil {
		return errors.WithContext(err, "read remote")
	}

	obs := Observation{
		LocalFP:      document.Fingerprint(localDoc),
		RemoteExists: remoteExists,
	}
	if remoteExists {
		obs.RemoteFP = document.Fingerprint(remoteDoc)
		obs.RemoteEmpty = remoteDoc.Empty()
	}

	decision := s.policy.Decide(s.table.Get(mapping), obs)
	fields := mappingFields(mapping)

	switch decision.Action {
	case ActionLocalToRemote:
		log.WithFields(fields).Info("Pushing local file to the cluster")
		if err := store.Upsert(ctx, mapping.Plural, mapping.Name, mapping.Kind, localDoc); err != nil {
			return errors.WithContext(err, "write remote")
		}
	case ActionRemoteToLocal:
		log.WithFields(fields).Info("Pulling remote changes into the local file")
		if err := s.files.Write(mapping.FilePath, remoteDoc); err != nil {
			return errors.WithContext(err, "write local")
		}
	case ActionSkipEmpty:
		log.WithFields(fields).Info("Remote payload is empty. Keeping the local file.")
	case ActionProtectAbsent:
		log.WithFields(fields).Debug("Remote resource not found. Protecting the local file.")
	case ActionNone:
	}

	s.table.Commit(mapping, decision.Next)
	return nil
}

func mappingFields(mapping config.Mapping) log.Fields {
	return log.Fields{
		"file":     mapping.FilePath,
		"resource": mapping.Plural + "/" + mapping.Name,
	}
}

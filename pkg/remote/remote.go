// Package remote accesses the cluster side of each mapping through the
// dynamic client, since the mapping table addresses resource types by their
// plural name at runtime.
package remote

import (
	"context"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/sidkik/crd-syncer/pkg/document"
	"github.com/sidkik/crd-syncer/pkg/errors"
)

// Store reads and writes the payload field of namespaced custom resources.
type Store struct {
	client       dynamic.Interface
	group        string
	version      string
	namespace    string
	payloadField string
}

// NewStore creates a Store for the given API group coordinates.
// payloadField is the resource field holding the synced document, usually
// `spec` but `data` in older deployments.
func NewStore(client dynamic.Interface, group, version, namespace, payloadField string) *Store {
	return &Store{
		client:       client,
		group:        group,
		version:      version,
		namespace:    namespace,
		payloadField: payloadField,
	}
}

func (s *Store) resource(plural string) dynamic.ResourceInterface {
	gvr := schema.GroupVersionResource{Group: s.group, Version: s.version, Resource: plural}
	return s.client.Resource(gvr).Namespace(s.namespace)
}

// Get fetches the payload of the named resource. exists=false means the
// resource is gone, which also covers a deleted CRD; absence is a
// first-class state for the guard policy rather than an error. An existing
// resource with an empty payload is distinct from an absent one.
func (s *Store) Get(ctx context.Context, plural, name string) (document.Document, bool, error) {
	obj, err := s.resource(plural).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return document.Document{}, false, nil
		}
		return nil, false, errors.WithContext(err, "get custom resource")
	}
	return document.Wrap(obj.Object[s.payloadField]), true, nil
}

// Upsert replaces the whole payload of the named resource, carrying over the
// current resourceVersion so that the update can't silently clobber a
// concurrent write the loop hasn't observed. When the resource doesn't
// exist it's created instead.
func (s *Store) Upsert(ctx context.Context, plural, name, kind string, doc document.Document) error {
	body := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": s.group + "/" + s.version,
		"kind":       kind,
		"metadata": map[string]interface{}{
			"name": name,
		},
		s.payloadField: map[string]interface{}(doc),
	}}

	current, err := s.resource(plural).Get(ctx, name, metav1.GetOptions{})
	switch {
	case err == nil:
		body.SetResourceVersion(current.GetResourceVersion())
		if _, err := s.resource(plural).Update(ctx, body, metav1.UpdateOptions{}); err != nil {
			return errors.WithContext(err, "update custom resource")
		}
	case apierrors.IsNotFound(err):
		// If the CRD itself was deleted the create 404s as well, and the
		// write is retried on a later pass once the CRD is back.
		if _, err := s.resource(plural).Create(ctx, body, metav1.CreateOptions{}); err != nil {
			return errors.WithContext(err, "create custom resource")
		}
	default:
		return errors.WithContext(err, "get current resource version")
	}
	return nil
}

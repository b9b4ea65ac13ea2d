package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/sidkik/crd-syncer/pkg/errors"
	"github.com/sidkik/crd-syncer/pkg/version"
)

// HandleFatalError prints the user-facing version of err and exits.
func HandleFatalError(err error) {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic logs unexpected crashes along with the running version so that
// they can be reported.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("version", version.Version).Errorf(
			"Unexpected crash: %v\n%s", r, debug.Stack())
		os.Exit(1)
	}
}

// GetRestConfig returns the Kubernetes client configuration. When inCluster
// is set it authenticates with the pod's ServiceAccount; otherwise it falls
// back to the user's kubeconfig for development.
func GetRestConfig(inCluster bool) (*rest.Config, error) {
	if inCluster {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, errors.WithContext(err, "load in-cluster config")
		}
		return restConfig, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, errors.WithContext(err, "load kubeconfig")
	}
	return restConfig, nil
}

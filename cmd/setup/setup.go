package setup

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	apiextensionsClientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/sidkik/crd-syncer/cmd/util"
	"github.com/sidkik/crd-syncer/pkg/config"
	"github.com/sidkik/crd-syncer/pkg/crd"
	"github.com/sidkik/crd-syncer/pkg/errors"
)

// New creates a new `setup` command.
func New() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install the cluster components required by the sync loop",
		Long: "Create the namespace and the CustomResourceDefinitions that\n" +
			"the configured mappings sync against.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := main(configPath); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		"Path to a YAML config file. Optional if FILE_MAP is set.")
	return cmd
}

func main(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.WithContext(err, "load config")
	}

	restConfig, err := util.GetRestConfig(cfg.InCluster)
	if err != nil {
		return errors.WithContext(err, "get kube config")
	}

	kubeClient, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return errors.WithContext(err, "new kube client")
	}

	crdClient, err := apiextensionsClientset.NewForConfig(restConfig)
	if err != nil {
		return errors.WithContext(err, "new apiextensions client")
	}

	if err := ensureNamespace(kubeClient, cfg.Namespace); err != nil {
		return errors.WithContext(err, "ensure namespace")
	}

	if err := createCRDs(crdClient, cfg); err != nil {
		return errors.WithContext(err, "create CRDs")
	}

	log.Info("Done")
	return nil
}

func ensureNamespace(kubeClient kubernetes.Interface, namespace string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: namespace},
	}
	_, err := kubeClient.CoreV1().Namespaces().Create(
		context.TODO(), ns, metav1.CreateOptions{})
	if err != nil && !kerrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// createCRDs installs a definition for every resource type referenced by the
// mapping table. Existing definitions are updated in place so that schema
// changes roll out with new syncer versions.
func createCRDs(crdClient apiextensionsClientset.Interface, cfg config.Config) error {
	c := crdClient.ApiextensionsV1().CustomResourceDefinitions()

	seen := map[string]bool{}
	for _, mapping := range cfg.Mappings {
		if seen[mapping.Plural] {
			continue
		}
		seen[mapping.Plural] = true

		definition := crd.Definition(
			cfg.Group, cfg.APIVersion, mapping.Plural, mapping.Kind, cfg.PayloadField)
		log.WithField("crd", definition.Name).Info("Creating CustomResourceDefinition")

		_, err := c.Create(context.TODO(), definition, metav1.CreateOptions{})
		switch {
		case kerrors.IsAlreadyExists(err):
			current, err := c.Get(context.TODO(), definition.Name, metav1.GetOptions{})
			if err != nil {
				return errors.WithContext(err, "get existing definition")
			}

			definition.ResourceVersion = current.ResourceVersion
			if _, err := c.Update(context.TODO(), definition, metav1.UpdateOptions{}); err != nil {
				return errors.WithContext(err, "update existing definition")
			}
		case err != nil:
			return errors.WithContext(err, "create definition")
		}
	}
	return nil
}

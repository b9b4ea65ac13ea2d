package run

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"k8s.io/client-go/dynamic"

	"github.com/sidkik/crd-syncer/cmd/util"
	"github.com/sidkik/crd-syncer/pkg/config"
	"github.com/sidkik/crd-syncer/pkg/errors"
	"github.com/sidkik/crd-syncer/pkg/local"
	"github.com/sidkik/crd-syncer/pkg/remote"
	"github.com/sidkik/crd-syncer/pkg/sync"
)

// New creates a new `run` command.
func New() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the sync loop",
		Long: "Continuously synchronize the configured JSON files with their\n" +
			"custom resources, polling on a fixed interval.",
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

	newStore := func() (sync.RemoteStore, error) {
		restConfig, err := util.GetRestConfig(cfg.InCluster)
		if err != nil {
			return nil, errors.WithContext(err, "get kube config")
		}

		client, err := dynamic.NewForConfig(restConfig)
		if err != nil {
			return nil, errors.WithContext(err, "new dynamic client")
		}
		return remote.NewStore(client, cfg.Group, cfg.APIVersion, cfg.Namespace, cfg.PayloadField), nil
	}

	syncer, err := sync.New(cfg, local.NewClient(afero.NewOsFs()), newStore)
	if err != nil {
		return err
	}
	return syncer.Run(context.Background())
}

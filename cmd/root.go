package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	// Load the client authentication plugins necessary for connecting to
	// managed clusters during development.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/sidkik/crd-syncer/cmd/run"
	"github.com/sidkik/crd-syncer/cmd/setup"
	"github.com/sidkik/crd-syncer/cmd/util"
	versionCmd "github.com/sidkik/crd-syncer/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "CRD_SYNCER_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "crd-syncer",
		Short:        "Keep local JSON files and cluster custom resources in sync",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		run.New(),
		setup.New(),
		versionCmd.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkik/crd-syncer/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of crd-syncer.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("crd-syncer version: %s\n", version.Version)
		},
	}
}

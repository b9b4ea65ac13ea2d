package main

import (
	"github.com/sidkik/crd-syncer/cmd"
	"github.com/sidkik/crd-syncer/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}

// Entrypoint for the dcsim CLI; delegates to the Cobra root command in
// cmd/root.go.

package main

import (
	"github.com/poweraware/dcsim/cmd"
)

func main() {
	cmd.Execute()
}

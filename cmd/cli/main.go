// Command startlat measures container startup latency from the timestamp
// records a container runtime writes while starting a container.
package main

import (
	"os"

	"github.com/ccollicutt/startlat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// stratanode is the strata storage node daemon.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stratastore/strata/ais"
)

func main() {
	configPath := flag.String("config", "", "path to node configuration (JSON)")
	flag.Parse()
	if err := ais.Run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "stratanode:", err)
		os.Exit(1)
	}
}

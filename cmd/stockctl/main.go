// Command stockctl moves stock between a warehouse and a shop, either from an
// interactive prompt or as an HTTP/gRPC service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Command intakectl checks local image files against the upload policy and
// inspects the model catalog.
package main

import (
	"os"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides formctl, a command-line front end for form schemas:
// lint them, compute derived values, validate input, run a live preview and
// manage the saved-form list.
package main

import (
	"log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

// Package main provides the entry point for the snapsort media organizer.
package main

import (
	"os"
)

func main() {
	if code := Execute(); code != 0 {
		os.Exit(code)
	}
}

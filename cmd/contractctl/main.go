// Package main is the entry point of the contractctl CLI.
package main

import "os"

func main() {
	os.Exit(Run())
}

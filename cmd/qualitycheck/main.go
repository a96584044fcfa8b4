// Package main provides the entry point for the qualitycheck CLI.
//
// qualitycheck validates the sales, schedule and inquiry journals of a
// fitness studio spreadsheet and keeps a task list of the problems it
// finds for the administrators.
//
// Usage:
//
//	qualitycheck run
//	qualitycheck history
//
// See --help for all available options.
package main

// main is the entry point for qualitycheck.
func main() {
	Execute()
}

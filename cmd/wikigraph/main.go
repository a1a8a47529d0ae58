// Package main provides the entry point for the wikigraph CLI.
//
// wikigraph crawls a wiki, stores the link graph between its pages and
// answers shortest path questions over it.
//
// Usage:
//
//	wikigraph crawl <seed>
//	wikigraph path <from> <to>
//
// See --help for all available options.
package main

// main is the entry point for wikigraph.
func main() {
	Execute()
}

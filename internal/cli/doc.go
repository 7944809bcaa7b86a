// Package cli implements the command-line interface for lomba-events.
//
// The cli package provides the Cobra-based CLI with subcommands for
// collecting sources (scrape), normalizing raw records from a file or
// stdin (normalize), serving the read API (serve), and deleting expired
// events (purge). It coordinates the config, pipeline, storage, and api
// packages.
package cli

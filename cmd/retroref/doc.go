// Command retroref curates multi-region ROM collections: it enumerates a
// local directory or remote directory index, picks one best file per game,
// and commits verified copies into a per-system library.
package main

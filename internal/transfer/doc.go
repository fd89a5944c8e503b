// Package transfer materializes selected candidates into the destination
// tree: bounded-parallel fetches through an interchangeable backend, staged
// writes, checksum verification, and integrity-cache bookkeeping.
package transfer

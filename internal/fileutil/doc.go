// Package fileutil provides single-pass checksum digests and crash-safe file
// commit helpers shared by the transfer pipeline.
package fileutil

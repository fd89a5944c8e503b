// Package integrity persists verified-transfer checksums and the per-run
// selection log in a SQLite database under the destination tree. Deleting
// the database is always safe; it only forces full re-verification.
package integrity

// Package backup creates timestamped copies of configuration files before
// destructive writes.
//
// Backups live under mcpsel's XDG config directory, mirroring the original
// file's path, with a per-file manifest tracking each copy's creation time
// and SHA256 hash. Restoration verifies integrity before overwriting the
// original, and pruning keeps the per-file history bounded.
package backup

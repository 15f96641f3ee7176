// Package rewrite executes a validated move plan against the filesystem:
// file moves first, then exact byte-span text patches.
//
// Patching is all-or-nothing per file. Each file's pre-patch content is
// held in memory; any failure mid-file restores the original bytes instead
// of leaving a partial rewrite. A failed file is reported and skipped, and
// the run continues, so one bad file never aborts the whole batch.
package rewrite

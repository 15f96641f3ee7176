// Package log provides slog-based logging with repository-relative paths.
//
// The PathHandler wrapper rewrites absolute filesystem paths in log
// attributes to paths relative to the repository root, so log output
// stays stable across machines and CI environments.
package log

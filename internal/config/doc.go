// Package config provides configuration structures and utilities for
// mdreorg. It defines the run options built from CLI flags, the YAML
// move-plan file format, and the XDG directory helpers for the history
// database.
package config

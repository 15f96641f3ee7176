// Package resolve implements the path resolver: it turns a reference's raw
// target string, written relative to its owning Document, into the
// repository-relative path it denotes.
//
// Resolution never touches the filesystem. Existence checking is the
// integrity package's job; this package only classifies and normalizes.
package resolve

package model

import (
	"encoding/hex"
	"io/fs"

	"golang.org/x/crypto/blake2b"
)

// Document represents a single tracked Markdown file in the repository.
// Its repository-relative path is the stable identifier across a run;
// the content hash is its identity across moves (a moved Document keeps
// its hash, only the path changes).
type Document struct {
	// Path is the repository-relative path using forward slashes.
	Path string `json:"path"`

	// Content is the raw UTF-8 file content.
	Content []byte `json:"-"`

	// Mode holds the file permission bits, preserved on rewrite.
	Mode fs.FileMode `json:"-"`

	// Hash is the BLAKE2b-256 hex digest of Content.
	// It identifies the Document independently of its location and is
	// used to verify that moves and rollbacks preserve content.
	Hash string `json:"hash"`
}

// NewDocument creates a Document and computes its content hash.
func NewDocument(path string, content []byte, mode fs.FileMode) *Document {
	return &Document{
		Path:    path,
		Content: content,
		Mode:    mode,
		Hash:    HashContent(content),
	}
}

// HashContent returns the BLAKE2b-256 hex digest of data.
func HashContent(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

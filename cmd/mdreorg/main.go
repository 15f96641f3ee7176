// Package main provides the entry point for the mdreorg CLI.
//
// mdreorg checks and preserves relative-link integrity in Markdown
// repositories across file and directory reorganizations.
//
// Usage:
//
//	mdreorg check [root]
//	mdreorg plan --move old.md=new.md [root]
//	mdreorg apply -p moves.yaml [root]
//
// See --help for all available options.
package main

import "os"

// main is the entry point for mdreorg.
func main() {
	os.Exit(Execute())
}

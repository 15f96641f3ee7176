// Package report formats run results for output.
//
// Three writers are provided: SimpleWriter for human-readable terminal
// output, JSONWriter for tool integration, and MarkdownWriter for
// documentation and sharing. All implement the Writer interface and can
// be combined with MultiWriter.
package report

// Package pipeline orchestrates a run as a sequence of strictly ordered
// phases: load the tree snapshot, extract references, validate and expand
// the move plan, apply file moves, apply text patches, and re-scan for the
// final integrity report.
//
// No phase begins before the previous phase's output is fully
// materialized. This ordering is itself the correctness guarantee:
// computing a post-move relative path requires complete knowledge of the
// final location of both a reference's owner and its target, which is only
// safe once the whole plan is expanded and validated, never interleaved
// with partial moves.
package pipeline

// Package planner implements the move planner: it validates a
// user-supplied move plan, expands directory-level moves into file-level
// moves, and computes every text patch needed to keep link meaning intact
// after the files relocate.
//
// Validation is fail-fast: a collision or dangling move aborts before any
// mutation, so an inconsistent plan can never damage the tree.
package planner

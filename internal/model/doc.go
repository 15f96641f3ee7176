// Package model defines the core data structures used throughout mdreorg.
//
// This package contains the following main types:
//   - Document: A Markdown file in the repository, identified by its repository-relative path
//   - Reference: A hyperlink occurrence extracted from a Document
//   - MovePlan / ExpandedPlan: The user-specified and tool-expanded relocation plans
//   - IntegrityReport: The final OK/BROKEN/EXTERNAL classification of every reference
//   - RunReport: The accumulator that flows through the pipeline
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scan, planner, rewrite, integrity, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model

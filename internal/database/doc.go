// Package database provides SQLite-based storage for run history.
//
// Every check/plan/apply run can be recorded with its counts and full
// report JSON, so `mdreorg history` can show how a corpus's link health
// evolved across reorganizations.
package database

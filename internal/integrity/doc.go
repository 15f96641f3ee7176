// Package integrity implements the integrity checker: it scans a snapshot
// of the repository tree, resolves every reference, and classifies each as
// OK, BROKEN, or EXTERNAL.
//
// The check is pure: it reads the snapshot it is given and mutates
// nothing, which is what makes a whole run safely re-runnable.
package integrity

// Package report writes run summaries to disk as JSON or YAML.
//
// The encoding follows the file extension (.json, .yaml or .yml). Files are
// written through a Saver, normally the storage manager, so a report is never
// observed half written.
package report

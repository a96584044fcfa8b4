// Package pipeline runs an audit of the spreadsheet as a sequence of steps.
//
// A run resolves the tab ids, reads and validates the audited sheets,
// loads the current task list, reconciles it with the fresh findings and
// writes it back. Each stage is a Step that receives the shared Run and
// records its results there.
//
// The audited sheets are independent, so AuditSheetsStep reads and
// validates them concurrently with errgroup. Reconciliation starts only
// after every sheet is done.
package pipeline

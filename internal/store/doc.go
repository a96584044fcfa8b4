// Package store defines the data source the audit reads sheets from and
// writes the task list to.
//
// Implementations live in subpackages: gsheets talks to the Google Sheets
// API and xlsx works on a local Excel workbook. Memory keeps sheets in
// process and backs dry runs and tests.
package store

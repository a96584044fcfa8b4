// Package model defines the core data structures shared across qualitycheck.
//
// This package contains the following main types:
//   - CellValue: a typed spreadsheet cell (empty, text, number or boolean)
//   - Finding: a single rule violation detected in a sheet row
//   - ReportItem: a persistent task-list entry derived from a Finding
//   - SheetKind: the business sheets the validators know how to audit
//
// Models live in their own package so that the validator, tasklist, store
// and database packages can share them without import cycles. All types are
// serializable to JSON for report output and run-history storage.
package model
